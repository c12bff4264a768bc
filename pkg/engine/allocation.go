package engine

import (
	. "github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

const (
	defaultMovesToGo   = 35
	incrementUsePct    = 80
	fischerHardMult    = 4
	criticalFischerMs  = 5000
	byoyomiSoftPct     = 80
	byoyomiReductionMs = 30
)

func mainTime(limits LimitsType, side int) int {
	if side == SideBlack {
		return limits.BlackTime
	}
	return limits.WhiteTime
}

func increment(limits LimitsType, side int) int {
	if side == SideBlack {
		return limits.BlackInc
	}
	return limits.WhiteInc
}

// allocate computes the soft and hard budgets for the current clock state.
// Zero means unlimited. Called at construction and again on ponder hit.
func (tm *timeManager) allocate() {
	var limits = tm.limits
	if limits.Infinite {
		return
	}
	var overhead = int64(tm.params.MoveOverheadMs)

	if limits.MoveTime > 0 {
		var budget = Max(1, int(int64(limits.MoveTime)*90/100-overhead))
		tm.softMs.Store(int64(budget))
		tm.hardMs.Store(int64(budget))
		return
	}

	var main = int64(mainTime(limits, tm.side))
	if limits.ByoyomiTime > 0 {
		tm.allocateByoyomi(main, overhead)
		return
	}
	if main > 0 {
		tm.allocateFischer(main, int64(increment(limits, tm.side)), overhead)
	}
}

func (tm *timeManager) allocateFischer(main, inc, overhead int64) {
	var movesToGo = int64(defaultMovesToGo)
	if tm.limits.MovesToGo > 0 {
		movesToGo = int64(tm.limits.MovesToGo)
	}
	var ideal = main/movesToGo + inc*incrementUsePct/100
	var soft = ideal
	var hard = ideal * fischerHardMult
	if hard > main/2 {
		hard = main / 2
	}
	soft = max64(1, soft-overhead)
	hard = max64(soft, hard-overhead)
	tm.softMs.Store(soft)
	tm.hardMs.Store(hard)
	// with almost no main time and no increment there is nothing to wait
	// for, soft expiry fires regardless of pv stability
	tm.timeCritical = main < criticalFischerMs && inc == 0
}

// allocateByoyomi spends main time normally while it lasts; once it would
// run inside the current byoyomi period, budget the period itself and keep
// a safety reduction off the hard limit.
func (tm *timeManager) allocateByoyomi(main, overhead int64) {
	var period = int64(tm.limits.ByoyomiTime)
	if main < period*12/10 {
		var soft = max64(1, period*byoyomiSoftPct/100-overhead)
		var hard = max64(soft, period-byoyomiReductionMs-overhead)
		tm.softMs.Store(soft)
		tm.hardMs.Store(hard)
		return
	}
	tm.softMs.Store(max64(1, main/5-overhead))
	tm.hardMs.Store(max64(1, main/2-overhead))
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
