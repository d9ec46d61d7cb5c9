package firewall

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Backend is the slice of the management API the rule model needs. The API
// client satisfies it.
type Backend interface {
	ListRules(ctx context.Context, tunnelID, childID uuid.UUID) ([]Rule, error)
	CreateRule(ctx context.Context, tunnelID, childID uuid.UUID, r NewRule) (*Rule, error)
	UpdateRule(ctx context.Context, tunnelID, childID, ruleID uuid.UUID, patch RulePatch) (*Rule, error)
	DeleteRule(ctx context.Context, tunnelID, childID, ruleID uuid.UUID) error
	ReorderRules(ctx context.Context, tunnelID, childID uuid.UUID, dir Direction, order []RuleOrder) error
	SetPolicy(ctx context.Context, tunnelID, childID uuid.UUID, patch PolicyPatch) (*Policy, error)
	GetPolicy(ctx context.Context, tunnelID, childID uuid.UUID) (*Policy, error)
}

// ChildFirewall is the view-facing model of one Child SA's firewall state.
// No mutation is reflected in it until the backend confirms; after any
// confirmed or rejected mutation the state is resynchronized from a fresh
// read rather than patched optimistically.
type ChildFirewall struct {
	backend  Backend
	tunnelID uuid.UUID
	childID  uuid.UUID

	inbound  []Rule
	outbound []Rule
	policy   Policy
}

// New creates the model for one Child SA. Call Refresh before first use.
func New(backend Backend, tunnelID, childID uuid.UUID) *ChildFirewall {
	return &ChildFirewall{
		backend:  backend,
		tunnelID: tunnelID,
		childID:  childID,
	}
}

// Refresh replaces the in-memory view with the authoritative backend state.
func (f *ChildFirewall) Refresh(ctx context.Context) error {
	rules, err := f.backend.ListRules(ctx, f.tunnelID, f.childID)
	if err != nil {
		return fmt.Errorf("list rules: %w", err)
	}
	policy, err := f.backend.GetPolicy(ctx, f.tunnelID, f.childID)
	if err != nil {
		return fmt.Errorf("read policy: %w", err)
	}

	f.inbound, f.outbound = SplitDirections(rules)
	f.policy = *policy
	return nil
}

// Inbound returns the inbound ordering, position 0 first.
func (f *ChildFirewall) Inbound() []Rule {
	return f.inbound
}

// Outbound returns the outbound ordering, position 0 first.
func (f *ChildFirewall) Outbound() []Rule {
	return f.outbound
}

// DefaultPolicy returns the current per-direction default policies.
func (f *ChildFirewall) DefaultPolicy() Policy {
	return f.policy
}

// Ordering returns the rule sequence for one direction.
func (f *ChildFirewall) Ordering(dir Direction) ([]Rule, error) {
	switch dir {
	case DirectionIn:
		return f.inbound, nil
	case DirectionOut:
		return f.outbound, nil
	default:
		return nil, fmt.Errorf("no single ordering for direction %q", dir)
	}
}

// Create appends a rule to the end of the relevant ordering(s). The server
// assigns the next contiguous priority; the view is then re-read.
func (f *ChildFirewall) Create(ctx context.Context, r NewRule) (*Rule, error) {
	created, err := f.backend.CreateRule(ctx, f.tunnelID, f.childID, r)
	if err != nil {
		return nil, err
	}
	if err := f.Refresh(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// Update edits one rule, then re-reads. Changing a rule's direction moves it
// between orderings server-side; the fresh read picks that up.
func (f *ChildFirewall) Update(ctx context.Context, ruleID uuid.UUID, patch RulePatch) (*Rule, error) {
	updated, err := f.backend.UpdateRule(ctx, f.tunnelID, f.childID, ruleID, patch)
	if err != nil {
		// The edit may have been rejected after partial validation;
		// resync so the view shows what actually holds.
		if rerr := f.Refresh(ctx); rerr != nil {
			return nil, fmt.Errorf("%w (resync also failed: %v)", err, rerr)
		}
		return nil, err
	}
	if err := f.Refresh(ctx); err != nil {
		return updated, err
	}
	return updated, nil
}

// Delete removes a rule from whichever ordering(s) it belonged to. The
// server re-compacts remaining priorities; the fresh read reflects that.
func (f *ChildFirewall) Delete(ctx context.Context, ruleID uuid.UUID) error {
	if err := f.backend.DeleteRule(ctx, f.tunnelID, f.childID, ruleID); err != nil {
		if rerr := f.Refresh(ctx); rerr != nil {
			return fmt.Errorf("%w (resync also failed: %v)", err, rerr)
		}
		return err
	}
	return f.Refresh(ctx)
}

// Reorder submits the full new id sequence for one direction. All or
// nothing: on rejection the previous order is re-fetched and kept, so the
// optimistic drag order is never trusted once a roundtrip has failed. Rules
// belonging only to the other direction are untouched either way.
func (f *ChildFirewall) Reorder(ctx context.Context, dir Direction, ids []uuid.UUID) error {
	all := append(append([]Rule{}, f.inbound...), f.outbound...)
	if err := ValidateSequence(dedupeRules(all), dir, ids); err != nil {
		return err
	}

	if err := f.backend.ReorderRules(ctx, f.tunnelID, f.childID, dir, OrderPayload(ids)); err != nil {
		if rerr := f.Refresh(ctx); rerr != nil {
			return fmt.Errorf("%w (resync also failed: %v)", err, rerr)
		}
		return err
	}
	return f.Refresh(ctx)
}

// SetDefaultPolicy toggles one direction's default policy. The toggle is
// optimistic: the view shows the new value immediately but reverts to the
// prior one if the backend rejects it. On success the confirmed value from
// the response wins over the local guess.
func (f *ChildFirewall) SetDefaultPolicy(ctx context.Context, dir Direction, action Action) error {
	prior := f.policy

	var patch PolicyPatch
	switch dir {
	case DirectionIn:
		f.policy.In = action
		patch.In = &action
	case DirectionOut:
		f.policy.Out = action
		patch.Out = &action
	default:
		return fmt.Errorf("default policy direction must be %q or %q, got %q", DirectionIn, DirectionOut, dir)
	}

	confirmed, err := f.backend.SetPolicy(ctx, f.tunnelID, f.childID, patch)
	if err != nil {
		f.policy = prior
		return err
	}
	f.policy = *confirmed
	return nil
}

// dedupeRules collapses the both-direction rules that appear in both
// orderings back to one entry per id.
func dedupeRules(rules []Rule) []Rule {
	seen := make(map[uuid.UUID]bool, len(rules))
	out := rules[:0]
	for _, r := range rules {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}
