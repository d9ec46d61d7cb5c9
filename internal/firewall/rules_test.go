package firewall

import (
	"testing"

	"github.com/google/uuid"
)

func TestSplitDirections(t *testing.T) {
	rIn := Rule{ID: uuid.New(), Direction: DirectionIn, PriorityIn: 1, PriorityOut: -1}
	rOut := Rule{ID: uuid.New(), Direction: DirectionOut, PriorityIn: -1, PriorityOut: 0}
	rBoth := Rule{ID: uuid.New(), Direction: DirectionBoth, PriorityIn: 0, PriorityOut: 1}

	in, out := SplitDirections([]Rule{rIn, rOut, rBoth})

	if len(in) != 2 || in[0].ID != rBoth.ID || in[1].ID != rIn.ID {
		t.Errorf("unexpected inbound ordering: %+v", in)
	}
	if len(out) != 2 || out[0].ID != rOut.ID || out[1].ID != rBoth.ID {
		t.Errorf("unexpected outbound ordering: %+v", out)
	}
}

func TestSplitDirections_BothHasIndependentPositions(t *testing.T) {
	// A both-rule first inbound and last outbound at the same time.
	rBoth := Rule{ID: uuid.New(), Direction: DirectionBoth, PriorityIn: 0, PriorityOut: 2}
	r1 := Rule{ID: uuid.New(), Direction: DirectionIn, PriorityIn: 1, PriorityOut: -1}
	r2 := Rule{ID: uuid.New(), Direction: DirectionOut, PriorityIn: -1, PriorityOut: 0}
	r3 := Rule{ID: uuid.New(), Direction: DirectionOut, PriorityIn: -1, PriorityOut: 1}

	in, out := SplitDirections([]Rule{r1, r2, r3, rBoth})
	if in[0].ID != rBoth.ID {
		t.Errorf("expected both-rule first inbound, got %+v", in)
	}
	if out[len(out)-1].ID != rBoth.ID {
		t.Errorf("expected both-rule last outbound, got %+v", out)
	}
}

func TestOrderPayload(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	payload := OrderPayload(ids)

	if len(payload) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(payload))
	}
	for i, entry := range payload {
		if entry.ID != ids[i] {
			t.Errorf("entry %d: wrong id", i)
		}
		if entry.Order != i {
			t.Errorf("entry %d: order = %d, want %d", i, entry.Order, i)
		}
	}
}

func TestValidateSequence(t *testing.T) {
	r1 := Rule{ID: uuid.New(), Direction: DirectionIn}
	r2 := Rule{ID: uuid.New(), Direction: DirectionBoth}
	r3 := Rule{ID: uuid.New(), Direction: DirectionOut}
	current := []Rule{r1, r2, r3}

	if err := ValidateSequence(current, DirectionIn, []uuid.UUID{r2.ID, r1.ID}); err != nil {
		t.Errorf("valid permutation rejected: %v", err)
	}

	// Missing a member.
	if err := ValidateSequence(current, DirectionIn, []uuid.UUID{r1.ID}); err == nil {
		t.Error("expected incomplete sequence to be rejected")
	}
	// Foreign rule from the other direction.
	if err := ValidateSequence(current, DirectionIn, []uuid.UUID{r1.ID, r3.ID}); err == nil {
		t.Error("expected cross-direction id to be rejected")
	}
	// Duplicate id.
	if err := ValidateSequence(current, DirectionIn, []uuid.UUID{r1.ID, r1.ID}); err == nil {
		t.Error("expected duplicate id to be rejected")
	}
	// Both is not an ordering.
	if err := ValidateSequence(current, DirectionBoth, []uuid.UUID{r2.ID}); err == nil {
		t.Error("expected direction both to be rejected")
	}
}

func TestAppliesDirections(t *testing.T) {
	cases := []struct {
		dir     Direction
		in, out bool
	}{
		{DirectionIn, true, false},
		{DirectionOut, false, true},
		{DirectionBoth, true, true},
	}
	for _, tc := range cases {
		r := Rule{Direction: tc.dir}
		if r.AppliesIn() != tc.in || r.AppliesOut() != tc.out {
			t.Errorf("direction %s: AppliesIn=%t AppliesOut=%t", tc.dir, r.AppliesIn(), r.AppliesOut())
		}
	}
}
