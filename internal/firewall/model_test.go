package firewall

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

// fakeBackend simulates the server-side rule store: dense per-direction
// priorities, append-on-create, compaction on delete.
type fakeBackend struct {
	rules  []Rule
	policy Policy

	reorderErr error
	policyErr  error

	listCalls    int
	reorderCalls int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{policy: Policy{In: ActionDrop, Out: ActionAccept}}
}

func (b *fakeBackend) compact() {
	nextIn, nextOut := 0, 0
	for i := range b.rules {
		b.rules[i].PriorityIn = -1
		b.rules[i].PriorityOut = -1
		if b.rules[i].AppliesIn() {
			b.rules[i].PriorityIn = nextIn
			nextIn++
		}
		if b.rules[i].AppliesOut() {
			b.rules[i].PriorityOut = nextOut
			nextOut++
		}
	}
}

func (b *fakeBackend) add(dir Direction) Rule {
	r := Rule{ID: uuid.New(), Direction: dir, Protocol: ProtocolAll, Action: ActionAccept}
	b.rules = append(b.rules, r)
	b.compact()
	return b.rules[len(b.rules)-1]
}

func (b *fakeBackend) ListRules(ctx context.Context, tunnelID, childID uuid.UUID) ([]Rule, error) {
	b.listCalls++
	return append([]Rule(nil), b.rules...), nil
}

func (b *fakeBackend) CreateRule(ctx context.Context, tunnelID, childID uuid.UUID, r NewRule) (*Rule, error) {
	created := b.add(r.Direction)
	return &created, nil
}

func (b *fakeBackend) UpdateRule(ctx context.Context, tunnelID, childID, ruleID uuid.UUID, patch RulePatch) (*Rule, error) {
	for i := range b.rules {
		if b.rules[i].ID == ruleID {
			if patch.Direction != nil {
				b.rules[i].Direction = *patch.Direction
				b.compact()
			}
			if patch.Action != nil {
				b.rules[i].Action = *patch.Action
			}
			r := b.rules[i]
			return &r, nil
		}
	}
	return nil, errors.New("rule not found")
}

func (b *fakeBackend) DeleteRule(ctx context.Context, tunnelID, childID, ruleID uuid.UUID) error {
	for i := range b.rules {
		if b.rules[i].ID == ruleID {
			b.rules = append(b.rules[:i], b.rules[i+1:]...)
			b.compact()
			return nil
		}
	}
	return errors.New("rule not found")
}

func (b *fakeBackend) ReorderRules(ctx context.Context, tunnelID, childID uuid.UUID, dir Direction, order []RuleOrder) error {
	b.reorderCalls++
	if b.reorderErr != nil {
		return b.reorderErr
	}
	pos := make(map[uuid.UUID]int, len(order))
	for _, o := range order {
		pos[o.ID] = o.Order
	}
	for i := range b.rules {
		if p, ok := pos[b.rules[i].ID]; ok {
			if dir == DirectionIn {
				b.rules[i].PriorityIn = p
			} else {
				b.rules[i].PriorityOut = p
			}
		}
	}
	return nil
}

func (b *fakeBackend) SetPolicy(ctx context.Context, tunnelID, childID uuid.UUID, patch PolicyPatch) (*Policy, error) {
	if b.policyErr != nil {
		return nil, b.policyErr
	}
	if patch.In != nil {
		b.policy.In = *patch.In
	}
	if patch.Out != nil {
		b.policy.Out = *patch.Out
	}
	p := b.policy
	return &p, nil
}

func (b *fakeBackend) GetPolicy(ctx context.Context, tunnelID, childID uuid.UUID) (*Policy, error) {
	p := b.policy
	return &p, nil
}

func newTestModel(t *testing.T, b *fakeBackend) *ChildFirewall {
	t.Helper()
	fw := New(b, uuid.New(), uuid.New())
	if err := fw.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	return fw
}

func TestChildFirewall_CreateAppendsToEnd(t *testing.T) {
	b := newFakeBackend()
	b.add(DirectionIn)
	fw := newTestModel(t, b)

	created, err := fw.Create(context.Background(), NewRule{Direction: DirectionIn, Action: ActionDrop})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	in := fw.Inbound()
	if len(in) != 2 {
		t.Fatalf("expected 2 inbound rules, got %d", len(in))
	}
	if in[1].ID != created.ID || in[1].PriorityIn != 1 {
		t.Errorf("new rule must land at the end, got %+v", in[1])
	}
}

func TestChildFirewall_Reorder(t *testing.T) {
	b := newFakeBackend()
	r1 := b.add(DirectionIn)
	r2 := b.add(DirectionIn)
	r3 := b.add(DirectionIn)
	fw := newTestModel(t, b)

	// Move the last rule to the front: r3, r1, r2.
	if err := fw.Reorder(context.Background(), DirectionIn, []uuid.UUID{r3.ID, r1.ID, r2.ID}); err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}

	in := fw.Inbound()
	wantOrder := []uuid.UUID{r3.ID, r1.ID, r2.ID}
	for i, want := range wantOrder {
		if in[i].ID != want {
			t.Errorf("position %d: wrong rule", i)
		}
		if in[i].PriorityIn != i {
			t.Errorf("position %d: priority = %d, want %d", i, in[i].PriorityIn, i)
		}
	}
}

func TestChildFirewall_ReorderDoesNotTouchOtherDirection(t *testing.T) {
	b := newFakeBackend()
	in1 := b.add(DirectionIn)
	in2 := b.add(DirectionIn)
	out1 := b.add(DirectionOut)
	out2 := b.add(DirectionOut)
	fw := newTestModel(t, b)

	if err := fw.Reorder(context.Background(), DirectionIn, []uuid.UUID{in2.ID, in1.ID}); err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}

	out := fw.Outbound()
	if out[0].ID != out1.ID || out[1].ID != out2.ID {
		t.Errorf("outbound ordering must be untouched, got %+v", out)
	}
}

func TestChildFirewall_ReorderRejectsBadSequences(t *testing.T) {
	b := newFakeBackend()
	r1 := b.add(DirectionIn)
	b.add(DirectionIn)
	out := b.add(DirectionOut)
	fw := newTestModel(t, b)

	// Incomplete and cross-direction sequences never reach the backend.
	if err := fw.Reorder(context.Background(), DirectionIn, []uuid.UUID{r1.ID}); err == nil {
		t.Error("expected incomplete sequence to be rejected")
	}
	if err := fw.Reorder(context.Background(), DirectionIn, []uuid.UUID{r1.ID, out.ID}); err == nil {
		t.Error("expected cross-direction sequence to be rejected")
	}
	if b.reorderCalls != 0 {
		t.Errorf("invalid sequences must not be submitted, got %d calls", b.reorderCalls)
	}
}

func TestChildFirewall_FailedReorderRefetches(t *testing.T) {
	b := newFakeBackend()
	r1 := b.add(DirectionIn)
	r2 := b.add(DirectionIn)
	fw := newTestModel(t, b)

	b.reorderErr = errors.New("conflict")
	listBefore := b.listCalls

	err := fw.Reorder(context.Background(), DirectionIn, []uuid.UUID{r2.ID, r1.ID})
	if err == nil {
		t.Fatal("expected reorder error")
	}
	if b.listCalls <= listBefore {
		t.Error("failed reorder must trigger an authoritative re-read")
	}

	// The view must show the server's order, not the attempted one.
	in := fw.Inbound()
	if in[0].ID != r1.ID || in[1].ID != r2.ID {
		t.Errorf("view must keep the authoritative order after a failed reorder, got %+v", in)
	}
}

func TestChildFirewall_BothRuleInBothOrderings(t *testing.T) {
	b := newFakeBackend()
	b.add(DirectionIn)
	both := b.add(DirectionBoth)
	b.add(DirectionOut)
	fw := newTestModel(t, b)

	foundIn, foundOut := false, false
	for _, r := range fw.Inbound() {
		if r.ID == both.ID {
			foundIn = true
		}
	}
	for _, r := range fw.Outbound() {
		if r.ID == both.ID {
			foundOut = true
		}
	}
	if !foundIn || !foundOut {
		t.Errorf("both-rule must appear in both orderings (in=%t out=%t)", foundIn, foundOut)
	}
}

func TestChildFirewall_DeleteCompactsPriorities(t *testing.T) {
	b := newFakeBackend()
	r1 := b.add(DirectionIn)
	b.add(DirectionIn)
	r3 := b.add(DirectionIn)
	fw := newTestModel(t, b)

	if err := fw.Delete(context.Background(), fw.Inbound()[1].ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	in := fw.Inbound()
	if len(in) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(in))
	}
	if in[0].ID != r1.ID || in[0].PriorityIn != 0 {
		t.Errorf("unexpected first rule: %+v", in[0])
	}
	if in[1].ID != r3.ID || in[1].PriorityIn != 1 {
		t.Errorf("expected priorities re-compacted, got %+v", in[1])
	}
}

func TestChildFirewall_SetDefaultPolicy(t *testing.T) {
	b := newFakeBackend()
	fw := newTestModel(t, b)

	if err := fw.SetDefaultPolicy(context.Background(), DirectionIn, ActionAccept); err != nil {
		t.Fatalf("SetDefaultPolicy failed: %v", err)
	}
	if p := fw.DefaultPolicy(); p.In != ActionAccept || p.Out != ActionAccept {
		t.Errorf("unexpected policy: %+v", p)
	}
}

func TestChildFirewall_PolicyRevertsOnError(t *testing.T) {
	b := newFakeBackend()
	fw := newTestModel(t, b)
	prior := fw.DefaultPolicy()

	b.policyErr = errors.New("backend rejected")
	if err := fw.SetDefaultPolicy(context.Background(), DirectionIn, ActionAccept); err == nil {
		t.Fatal("expected policy error")
	}
	if fw.DefaultPolicy() != prior {
		t.Errorf("policy must revert on rejection, got %+v", fw.DefaultPolicy())
	}
}
