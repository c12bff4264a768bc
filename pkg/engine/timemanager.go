package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

type timeParameters struct {
	PVBaseThresholdMs int
	PVDepthSlopeMs    int
	MoveOverheadMs    int
	ByoyomiPeriods    int
}

func timeParametersFrom(o *Options) timeParameters {
	return timeParameters{
		PVBaseThresholdMs: o.PVBaseThresholdMs,
		PVDepthSlopeMs:    o.PVDepthSlopeMs,
		MoveOverheadMs:    o.MoveOverheadMs,
		ByoyomiPeriods:    o.ByoyomiPeriods,
	}
}

// timeManager decides when a search must end. Soft expiry waits for a
// stable principal variation; hard expiry and the node budget do not.
// Pondering suspends the clock entirely until PonderHit rebases it.
type timeManager struct {
	ctx    context.Context
	params timeParameters
	limits LimitsType
	side   int
	now    func() time.Time

	start        atomic.Int64 // unix nanos; rebased by PonderHit
	softMs       atomic.Int64 // 0 means unlimited
	hardMs       atomic.Int64
	nodeBudget   int64
	nodesSeen    atomic.Int64
	stopped      atomic.Bool
	hardHit      atomic.Bool
	pondering    atomic.Bool
	timeCritical bool

	lastPVChangeMs atomic.Int64
	pvThresholdMs  atomic.Int64

	byoMu       sync.Mutex
	mainLeftMs  int64
	periodMs    int64
	periodsLeft int
}

func newTimeManager(ctx context.Context, start time.Time,
	params timeParameters, limits LimitsType, side int) *timeManager {
	var tm = &timeManager{
		ctx:    ctx,
		params: params,
		limits: limits,
		side:   side,
		now:    time.Now,
	}
	tm.start.Store(start.UnixNano())
	tm.pondering.Store(limits.Ponder)
	tm.pvThresholdMs.Store(int64(params.PVBaseThresholdMs))
	if limits.Nodes > 0 {
		tm.nodeBudget = int64(limits.Nodes)
	}
	if limits.ByoyomiTime > 0 {
		tm.periodMs = int64(limits.ByoyomiTime)
		var periods = limits.ByoyomiPeriods
		if periods == 0 {
			periods = params.ByoyomiPeriods
		}
		tm.periodsLeft = Max(1, periods)
		tm.mainLeftMs = int64(mainTime(limits, side))
	}
	tm.allocate()
	return tm
}

func (tm *timeManager) elapsedMs() int64 {
	return (tm.now().UnixNano() - tm.start.Load()) / int64(time.Millisecond)
}

// IsDone is checked from every search thread on the node-count cadence and
// from the scheduler loop. Order matters: explicit stops and the node
// budget apply even while pondering; the clock does not.
func (tm *timeManager) IsDone() bool {
	if tm.stopped.Load() {
		return true
	}
	if tm.ctx.Err() != nil {
		tm.stopped.Store(true)
		return true
	}
	if tm.nodeBudget > 0 && tm.nodesSeen.Load() >= tm.nodeBudget {
		tm.stopped.Store(true)
		return true
	}
	if tm.pondering.Load() {
		return false
	}
	var elapsed = tm.elapsedMs()
	if hard := tm.hardMs.Load(); hard > 0 && elapsed >= hard {
		tm.hardHit.Store(true)
		tm.stopped.Store(true)
		return true
	}
	if soft := tm.softMs.Load(); soft > 0 && elapsed >= soft {
		if tm.timeCritical || tm.isPVStable(elapsed) {
			tm.stopped.Store(true)
			return true
		}
	}
	return false
}

func (tm *timeManager) OnNodesChanged(nodes int64) {
	tm.nodesSeen.Store(nodes)
}

// OnPVChange restarts the stability window; deeper iterations demand a
// longer one.
func (tm *timeManager) OnPVChange(depth int) {
	tm.lastPVChangeMs.Store(tm.elapsedMs())
	tm.pvThresholdMs.Store(int64(tm.params.PVBaseThresholdMs +
		depth*tm.params.PVDepthSlopeMs))
}

func (tm *timeManager) IsPVStable() bool {
	return tm.isPVStable(tm.elapsedMs())
}

func (tm *timeManager) isPVStable(elapsed int64) bool {
	return elapsed-tm.lastPVChangeMs.Load() >= tm.pvThresholdMs.Load()
}

// PonderHit rebases the clock to the moment the opponent actually moved and
// resumes time control. Time already spent pondering is credited against the
// fresh budgets.
func (tm *timeManager) PonderHit() {
	if !tm.pondering.CompareAndSwap(true, false) {
		return
	}
	var spent = tm.elapsedMs()
	tm.start.Store(tm.now().UnixNano())
	tm.lastPVChangeMs.Store(0)
	tm.pvThresholdMs.Store(int64(tm.params.PVBaseThresholdMs))
	tm.allocate()
	if soft := tm.softMs.Load(); soft > 0 {
		tm.softMs.Store(max64(1, soft-spent))
	}
	if hard := tm.hardMs.Load(); hard > 0 {
		tm.hardMs.Store(max64(1, hard-spent))
	}
}

func (tm *timeManager) ForceStop() {
	tm.stopped.Store(true)
}

func (tm *timeManager) HardTimeout() bool {
	return tm.hardHit.Load()
}

// FinishMove settles the clock after the move is sent. Only byoyomi needs
// bookkeeping here; main time and increments are reported fresh by the GUI
// each move.
func (tm *timeManager) FinishMove() {
	if tm.periodMs > 0 {
		tm.consumeByoyomi(tm.elapsedMs())
	}
}

// consumeByoyomi charges elapsed move time against main time first, then
// whole byoyomi periods. A partially used period resets; running past the
// last period forfeits.
func (tm *timeManager) consumeByoyomi(elapsedMs int64) (periodsConsumed int, remainderMs int64, forfeited bool) {
	tm.byoMu.Lock()
	defer tm.byoMu.Unlock()

	var over = elapsedMs - tm.mainLeftMs
	if over <= 0 {
		tm.mainLeftMs -= elapsedMs
		return 0, 0, false
	}
	tm.mainLeftMs = 0
	periodsConsumed = int(over / tm.periodMs)
	remainderMs = over % tm.periodMs
	tm.periodsLeft -= periodsConsumed
	forfeited = tm.periodsLeft < 0 || (tm.periodsLeft == 0 && remainderMs > 0)
	if tm.periodsLeft < 0 {
		tm.periodsLeft = 0
	}
	if forfeited {
		tm.stopped.Store(true)
	}
	return periodsConsumed, remainderMs, forfeited
}

func (tm *timeManager) Close() {
	tm.stopped.Store(true)
}
