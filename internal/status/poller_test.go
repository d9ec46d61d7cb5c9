package status

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoller_FirstObservation(t *testing.T) {
	fetch := func(ctx context.Context) (*Snapshot, error) {
		return &Snapshot{IKEState: "ESTABLISHED"}, nil
	}

	p := NewPoller(fetch, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	select {
	case u := <-p.Updates():
		if u.Status != Established {
			t.Errorf("expected established, got %s", u.Status)
		}
		if !u.Changed {
			t.Error("first observation away from disconnected must report a change")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the first update")
	}

	if p.Last() != Established {
		t.Errorf("Last() = %s, want established", p.Last())
	}
}

func TestPoller_ChangedOnlyOnTransition(t *testing.T) {
	states := []string{"CONNECTING", "CONNECTING", "ESTABLISHED"}
	var calls atomic.Int32

	fetch := func(ctx context.Context) (*Snapshot, error) {
		n := calls.Add(1)
		if int(n) > len(states) {
			n = int32(len(states))
		}
		return &Snapshot{IKEState: states[n-1]}, nil
	}

	p := NewPoller(fetch, 10*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	wantChanged := []bool{true, false, true}
	for i, want := range wantChanged {
		select {
		case u := <-p.Updates():
			if u.Changed != want {
				t.Errorf("update %d: Changed = %t, want %t", i, u.Changed, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for update %d", i)
		}
	}
}

func TestPoller_FailedFetchKeepsLastKnownGood(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context) (*Snapshot, error) {
		if calls.Add(1) == 1 {
			return &Snapshot{IKEState: "ESTABLISHED"}, nil
		}
		return nil, errors.New("backend unreachable")
	}

	p := NewPoller(fetch, 10*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	select {
	case <-p.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the first update")
	}

	// Let several failing polls happen. No update may arrive and the
	// last-known-good status must stand.
	select {
	case u, ok := <-p.Updates():
		if ok {
			t.Errorf("unexpected update after failed fetch: %+v", u)
		}
	case <-time.After(100 * time.Millisecond):
	}

	if p.Last() != Established {
		t.Errorf("failed polls must not move the status, got %s", p.Last())
	}
}

func TestPoller_CancelStopsFetching(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context) (*Snapshot, error) {
		calls.Add(1)
		return &Snapshot{IKEState: "ESTABLISHED"}, nil
	}

	p := NewPoller(fetch, 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case <-p.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the first update")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	// The channel closes with Run; no fetches may happen afterwards.
	after := calls.Load()
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != after {
		t.Error("fetches continued after cancellation")
	}
	for range p.Updates() {
		// drain any buffered update; the loop ends because Run closed it
	}
}

func TestPoller_NoOverlappingFetches(t *testing.T) {
	var inFlight atomic.Int32
	fetch := func(ctx context.Context) (*Snapshot, error) {
		if inFlight.Add(1) > 1 {
			t.Error("overlapping fetches")
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return &Snapshot{IKEState: "ESTABLISHED"}, nil
	}

	// Interval shorter than the fetch duration: the next poll still must not
	// start before the previous one completed.
	p := NewPoller(fetch, time.Millisecond, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	go func() {
		for range p.Updates() {
		}
	}()
	p.Run(ctx)
}
