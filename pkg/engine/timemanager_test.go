package engine

import (
	"context"
	"testing"
	"time"

	. "github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

// fakeTimeManager builds a manager on a controllable clock. Advance the
// returned *int64 (milliseconds) to move time forward.
func fakeTimeManager(limits LimitsType, side int) (*timeManager, *int64) {
	var nowMs int64
	var clock = func() time.Time { return time.Unix(0, nowMs*int64(time.Millisecond)) }
	var tm = newTimeManager(context.Background(), time.Unix(0, 0),
		timeParametersFrom(&Options{
			PVBaseThresholdMs: 150,
			PVDepthSlopeMs:    10,
			MoveOverheadMs:    0,
		}), limits, side)
	tm.now = clock
	return tm, &nowMs
}

func TestByoyomiRollover(t *testing.T) {
	var cases = []struct {
		mainLeft, period int64
		periods          int
		elapsed          int64
		wantConsumed     int
		wantRemainder    int64
		wantForfeit      bool
		wantPeriodsLeft  int
	}{
		{10000, 30000, 3, 4000, 0, 0, false, 3},        // inside main time
		{1000, 30000, 3, 25000, 0, 24000, false, 3},    // partial period resets
		{0, 30000, 3, 45000, 1, 15000, false, 2},       // one full period gone
		{0, 30000, 3, 90000, 3, 0, false, 0},           // exactly the last period
		{0, 30000, 3, 95000, 3, 5000, true, 0},         // past the last period
		{0, 30000, 1, 60001, 2, 1, true, 0},            // past everything
	}
	for i, c := range cases {
		var tm = &timeManager{
			mainLeftMs:  c.mainLeft,
			periodMs:    c.period,
			periodsLeft: c.periods,
		}
		var consumed, remainder, forfeited = tm.consumeByoyomi(c.elapsed)
		if consumed != c.wantConsumed || remainder != c.wantRemainder ||
			forfeited != c.wantForfeit || tm.periodsLeft != c.wantPeriodsLeft {
			t.Fatalf("case %v: consumed=%v remainder=%v forfeited=%v periodsLeft=%v",
				i, consumed, remainder, forfeited, tm.periodsLeft)
		}
		if forfeited && !tm.stopped.Load() {
			t.Fatalf("case %v: forfeit did not stop the clock", i)
		}
	}
}

func TestByoyomiMainTimeDebit(t *testing.T) {
	var tm = &timeManager{mainLeftMs: 10000, periodMs: 30000, periodsLeft: 3}
	tm.consumeByoyomi(4000)
	if tm.mainLeftMs != 6000 {
		t.Fatalf("main time left %v after 4000ms move", tm.mainLeftMs)
	}
}

func TestNodeBudget(t *testing.T) {
	var tm, _ = fakeTimeManager(LimitsType{Nodes: 1000}, SideBlack)
	tm.OnNodesChanged(999)
	if tm.IsDone() {
		t.Fatalf("done before node budget")
	}
	tm.OnNodesChanged(1000)
	if !tm.IsDone() {
		t.Fatalf("not done at node budget")
	}
}

func TestSoftLimitWaitsForStablePV(t *testing.T) {
	var tm, nowMs = fakeTimeManager(LimitsType{BlackTime: 10000, BlackInc: 1000}, SideBlack)
	var soft = tm.softMs.Load()
	if soft <= 0 {
		t.Fatalf("no soft limit allocated")
	}

	// pv changes right at the soft boundary: the soft limit must hold on
	*nowMs = soft
	tm.OnPVChange(8)
	if tm.IsDone() {
		t.Fatalf("soft expiry fired with an unstable pv")
	}

	*nowMs = soft + tm.pvThresholdMs.Load()
	if !tm.IsDone() {
		t.Fatalf("soft expiry did not fire once the pv settled")
	}
}

func TestHardLimitIgnoresStability(t *testing.T) {
	var tm, nowMs = fakeTimeManager(LimitsType{BlackTime: 10000, BlackInc: 1000}, SideBlack)
	*nowMs = tm.hardMs.Load() - 1
	tm.OnPVChange(20)
	*nowMs = tm.hardMs.Load()
	if !tm.IsDone() {
		t.Fatalf("hard expiry blocked by pv stability")
	}
	if !tm.HardTimeout() {
		t.Fatalf("hard timeout not recorded")
	}
}

func TestFischerTimeCritical(t *testing.T) {
	var tm, nowMs = fakeTimeManager(LimitsType{BlackTime: 3000}, SideBlack)
	if !tm.timeCritical {
		t.Fatalf("low clock with no increment not flagged critical")
	}
	// critical mode lets the soft limit fire without pv stability
	*nowMs = tm.softMs.Load()
	tm.OnPVChange(12)
	*nowMs = tm.softMs.Load() + 1
	if !tm.IsDone() {
		t.Fatalf("critical soft expiry waited for stability")
	}

	var tm2, _ = fakeTimeManager(LimitsType{BlackTime: 60000, BlackInc: 1000}, SideBlack)
	if tm2.timeCritical {
		t.Fatalf("healthy clock flagged critical")
	}
}

func TestPonderSuspendsClock(t *testing.T) {
	var tm, nowMs = fakeTimeManager(LimitsType{Ponder: true, BlackTime: 10000}, SideBlack)
	*nowMs = 1 << 30
	if tm.IsDone() {
		t.Fatalf("clock expired while pondering")
	}
}

func TestPonderHitRebasesAndResetsStability(t *testing.T) {
	var tm, nowMs = fakeTimeManager(LimitsType{Ponder: true, BlackTime: 60000, BlackInc: 1000}, SideBlack)
	*nowMs = 5000
	tm.OnPVChange(15)
	*nowMs = 9000
	tm.PonderHit()

	if tm.pondering.Load() {
		t.Fatalf("still pondering after ponder hit")
	}
	if got := tm.elapsedMs(); got != 0 {
		t.Fatalf("clock not rebased, elapsed=%v", got)
	}
	if got := tm.pvThresholdMs.Load(); got != 150 {
		t.Fatalf("stability threshold not reset, got %v", got)
	}
	if tm.lastPVChangeMs.Load() != 0 {
		t.Fatalf("pv change timestamp not reset")
	}

	// a second hit is a no-op
	*nowMs = 9500
	tm.PonderHit()
	if tm.elapsedMs() != 500 {
		t.Fatalf("repeated ponder hit rebased the clock again")
	}
}

func TestPonderHitDebitsTimeSpent(t *testing.T) {
	var limits = LimitsType{Ponder: true, BlackTime: 60000, BlackInc: 1000}
	var tm, nowMs = fakeTimeManager(limits, SideBlack)

	// the same limits without pondering give the undebited budgets
	var fresh, _ = fakeTimeManager(LimitsType{BlackTime: 60000, BlackInc: 1000}, SideBlack)

	var spent = int64(2000)
	*nowMs = spent
	tm.PonderHit()

	if got, want := tm.softMs.Load(), max64(1, fresh.softMs.Load()-spent); got != want {
		t.Fatalf("soft limit %v after ponder hit, want %v", got, want)
	}
	if got, want := tm.hardMs.Load(), max64(1, fresh.hardMs.Load()-spent); got != want {
		t.Fatalf("hard limit %v after ponder hit, want %v", got, want)
	}
}

func TestByoyomiDefaultPeriodsOption(t *testing.T) {
	var params = timeParametersFrom(&Options{ByoyomiPeriods: 3})
	var tm = newTimeManager(context.Background(), time.Unix(0, 0), params,
		LimitsType{ByoyomiTime: 30000}, SideBlack)
	if tm.periodsLeft != 3 {
		t.Fatalf("periodsLeft %v, want default option value 3", tm.periodsLeft)
	}
	// an explicit go-command count still wins
	tm = newTimeManager(context.Background(), time.Unix(0, 0), params,
		LimitsType{ByoyomiTime: 30000, ByoyomiPeriods: 5}, SideBlack)
	if tm.periodsLeft != 5 {
		t.Fatalf("periodsLeft %v, want explicit 5", tm.periodsLeft)
	}
}

func TestMoveTimeBudget(t *testing.T) {
	var tm, nowMs = fakeTimeManager(LimitsType{MoveTime: 1000}, SideBlack)
	if tm.softMs.Load() != tm.hardMs.Load() {
		t.Fatalf("movetime soft and hard differ")
	}
	*nowMs = tm.hardMs.Load()
	if !tm.IsDone() {
		t.Fatalf("movetime budget did not expire")
	}
}

func TestInfiniteNeverExpires(t *testing.T) {
	var tm, nowMs = fakeTimeManager(LimitsType{Infinite: true}, SideBlack)
	*nowMs = 1 << 40
	if tm.IsDone() {
		t.Fatalf("infinite search expired")
	}
	tm.ForceStop()
	if !tm.IsDone() {
		t.Fatalf("forced stop ignored")
	}
}
