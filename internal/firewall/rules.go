// Package firewall maintains the per-Child-SA firewall rule model: ordered,
// directional rule lists plus default policies, kept consistent with the
// backend through authoritative re-reads.
package firewall

import (
	"fmt"

	"github.com/google/uuid"
)

// Direction tags which traffic ordering(s) a rule belongs to.
type Direction string

const (
	DirectionIn   Direction = "in"
	DirectionOut  Direction = "out"
	DirectionBoth Direction = "both"
)

// Protocol is the match protocol of a rule.
type Protocol string

const (
	ProtocolAll  Protocol = "all"
	ProtocolTCP  Protocol = "tcp"
	ProtocolUDP  Protocol = "udp"
	ProtocolICMP Protocol = "icmp"
)

// Action is what a rule (or a default policy) does with matching traffic.
type Action string

const (
	ActionAccept Action = "ACCEPT"
	ActionDrop   Action = "DROP"
)

// Rule is one firewall rule owned by a Child SA.
//
// PriorityIn and PriorityOut are the server-assigned dense positions within
// the inbound and outbound orderings. A rule only carries a meaningful value
// for the ordering(s) it belongs to; the backend reports -1 for the other.
type Rule struct {
	ID          uuid.UUID `json:"id"`
	ChildID     uuid.UUID `json:"child_sa_id"`
	Direction   Direction `json:"direction"`
	Protocol    Protocol  `json:"protocol"`
	Port        string    `json:"port,omitempty"`
	Source      string    `json:"source,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Action      Action    `json:"action"`
	Description string    `json:"description,omitempty"`
	PriorityIn  int       `json:"priority_in"`
	PriorityOut int       `json:"priority_out"`
}

// AppliesIn reports membership in the inbound ordering.
func (r Rule) AppliesIn() bool {
	return r.Direction == DirectionIn || r.Direction == DirectionBoth
}

// AppliesOut reports membership in the outbound ordering.
func (r Rule) AppliesOut() bool {
	return r.Direction == DirectionOut || r.Direction == DirectionBoth
}

// NewRule is the create payload. No priority: the server appends to the end
// of the relevant ordering(s).
type NewRule struct {
	Direction   Direction `json:"direction"`
	Protocol    Protocol  `json:"protocol"`
	Port        string    `json:"port,omitempty"`
	Source      string    `json:"source,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Action      Action    `json:"action"`
	Description string    `json:"description,omitempty"`
}

// RulePatch is the partial update payload; nil fields are left untouched.
type RulePatch struct {
	Direction   *Direction `json:"direction,omitempty"`
	Protocol    *Protocol  `json:"protocol,omitempty"`
	Port        *string    `json:"port,omitempty"`
	Source      *string    `json:"source,omitempty"`
	Destination *string    `json:"destination,omitempty"`
	Action      *Action    `json:"action,omitempty"`
	Description *string    `json:"description,omitempty"`
}

// RuleOrder is one entry of the reorder payload.
type RuleOrder struct {
	ID    uuid.UUID `json:"id"`
	Order int       `json:"order"`
}

// Policy holds the independent per-direction default policies of a Child SA.
type Policy struct {
	In  Action `json:"policy_in"`
	Out Action `json:"policy_out"`
}

// PolicyPatch toggles one or both default policies.
type PolicyPatch struct {
	In  *Action `json:"policy_in,omitempty"`
	Out *Action `json:"policy_out,omitempty"`
}

// OrderPayload builds the reorder payload for a full id sequence, assigning
// dense positions 0..N-1 in the given order.
func OrderPayload(ids []uuid.UUID) []RuleOrder {
	payload := make([]RuleOrder, len(ids))
	for i, id := range ids {
		payload[i] = RuleOrder{ID: id, Order: i}
	}
	return payload
}

// SplitDirections partitions rules into the inbound and outbound orderings,
// each sorted by its own direction-scoped priority. A "both" rule appears in
// both results, at independent positions.
func SplitDirections(rules []Rule) (in, out []Rule) {
	for _, r := range rules {
		if r.AppliesIn() {
			in = append(in, r)
		}
		if r.AppliesOut() {
			out = append(out, r)
		}
	}
	sortByPriority(in, func(r Rule) int { return r.PriorityIn })
	sortByPriority(out, func(r Rule) int { return r.PriorityOut })
	return in, out
}

func sortByPriority(rules []Rule, prio func(Rule) int) {
	// Insertion sort; orderings are short and mostly sorted already.
	for i := 1; i < len(rules); i++ {
		for j := i; j > 0 && prio(rules[j]) < prio(rules[j-1]); j-- {
			rules[j], rules[j-1] = rules[j-1], rules[j]
		}
	}
}

// ValidateSequence checks that a proposed id sequence for one direction is a
// permutation of that direction's current membership. Reordering must not
// add, drop, or cross-direction-move rules.
func ValidateSequence(current []Rule, dir Direction, ids []uuid.UUID) error {
	if dir != DirectionIn && dir != DirectionOut {
		return fmt.Errorf("reorder direction must be %q or %q, got %q", DirectionIn, DirectionOut, dir)
	}

	member := make(map[uuid.UUID]bool)
	for _, r := range current {
		if (dir == DirectionIn && r.AppliesIn()) || (dir == DirectionOut && r.AppliesOut()) {
			member[r.ID] = true
		}
	}

	if len(ids) != len(member) {
		return fmt.Errorf("reorder sequence has %d ids, direction %q has %d rules", len(ids), dir, len(member))
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !member[id] {
			return fmt.Errorf("rule %s is not part of the %q ordering", id, dir)
		}
		if seen[id] {
			return fmt.Errorf("rule %s appears twice in the reorder sequence", id)
		}
		seen[id] = true
	}
	return nil
}
