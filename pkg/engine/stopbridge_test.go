package engine

import (
	"context"
	"testing"
	"time"

	. "github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

func TestRequestStopWithoutSession(t *testing.T) {
	currentSession.Store(nil)
	if info := RequestStopImmediate(); info != nil {
		t.Fatalf("stop without a session returned %+v", info)
	}
	if LastStopInfo() != nil {
		t.Fatalf("stop info without a session")
	}
}

func TestStopLatency(t *testing.T) {
	var e = newTestEngine(1)
	var done = make(chan SearchInfo, 1)
	go func() {
		done <- e.Search(context.Background(), SearchParams{
			Positions: positionsFromSFEN(t, InitialPositionSFEN),
			Limits:    LimitsType{Infinite: true},
		})
	}()

	// let the session publish and the search ramp up
	var deadline = time.Now().Add(2 * time.Second)
	for currentSession.Load() == nil {
		if time.Now().After(deadline) {
			t.Fatalf("session never published")
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	var before = time.Now()
	var info = RequestStopImmediate()
	select {
	case si := <-done:
		if got := time.Since(before); got >= 100*time.Millisecond {
			t.Fatalf("stop took %v", got)
		}
		if si.Resign || len(si.MainLine) == 0 {
			t.Fatalf("interrupted search produced no move")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("search did not stop")
	}
	if info == nil || info.Reason != "external stop" {
		t.Fatalf("stop info %+v", info)
	}
	if info.Nodes == 0 {
		t.Fatalf("stop info has no node count")
	}
}

func TestSessionClearedAfterSearch(t *testing.T) {
	var e = newTestEngine(1)
	e.Search(context.Background(), SearchParams{
		Positions: positionsFromSFEN(t, InitialPositionSFEN),
		Limits:    LimitsType{Nodes: 500},
	})
	if currentSession.Load() != nil {
		t.Fatalf("session still published after search returned")
	}
	// a late stop against the finished session is a no-op
	if info := RequestStopImmediate(); info != nil {
		t.Fatalf("stale stop returned %+v", info)
	}
}

func TestContextCancelStopsSearch(t *testing.T) {
	var e = newTestEngine(1)
	var ctx, cancel = context.WithCancel(context.Background())
	var done = make(chan SearchInfo, 1)
	go func() {
		done <- e.Search(ctx, SearchParams{
			Positions: positionsFromSFEN(t, InitialPositionSFEN),
			Limits:    LimitsType{Infinite: true},
		})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case si := <-done:
		if len(si.MainLine) == 0 {
			t.Fatalf("cancelled search produced no move")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("search ignored context cancellation")
	}
}
