package engine

import (
	"errors"
	"sync"
	"time"

	. "github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

var errSearchTimeout = errors.New("search timeout")

func recoverFromSearchTimeout() {
	var r = recover()
	if r != nil && r != errSearchTimeout {
		panic(r)
	}
}

// rootSearch is the shared state of one (depth, window) iteration. Workers
// race root moves against it under a mutex; the TT absorbs any duplicated
// deeper work.
type rootSearch struct {
	engine   *Engine
	root     *Position
	depth    int
	prevBest Move

	mu        sync.Mutex
	alpha     int
	beta      int
	bestScore int
	bestMove  Move
	bestLine  []Move
	failHigh  bool
}

func (e *Engine) newRootSearch(root *Position, depth, alpha, beta int, prevBest Move) *rootSearch {
	return &rootSearch{
		engine:    e,
		root:      root,
		depth:     depth,
		prevBest:  prevBest,
		alpha:     alpha,
		beta:      beta,
		bestScore: -valueInfinity,
	}
}

func (rs *rootSearch) finished() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.failHigh
}

func (rs *rootSearch) searchMove(t *thread, move Move) {
	rs.mu.Lock()
	var alpha = rs.alpha
	var beta = rs.beta
	var first = rs.bestScore == -valueInfinity
	rs.mu.Unlock()
	if alpha >= beta {
		return
	}

	var score int
	var line []Move
	if first || beta == alpha+1 {
		score, line = t.searchRootMove(rs.root, move, alpha, beta, rs.depth)
	} else {
		score, line = t.searchRootMove(rs.root, move, alpha, alpha+1, rs.depth)
		if score > alpha {
			score, line = t.searchRootMove(rs.root, move, alpha, beta, rs.depth)
		}
	}
	if score == -valueInfinity {
		return
	}

	var changed = false
	rs.mu.Lock()
	if score > rs.bestScore {
		rs.bestScore = score
		if score > rs.alpha {
			rs.alpha = score
			changed = rs.bestMove != move && move != rs.prevBest
			rs.bestMove = move
			rs.bestLine = line
			if score >= rs.beta {
				rs.failHigh = true
			}
		}
	}
	var bestScore, bestMove, bestLine = rs.bestScore, rs.bestMove, rs.bestLine
	rs.mu.Unlock()

	if changed {
		rs.engine.timeManager.OnPVChange(rs.depth)
	}
	// keep the externally visible line current so an interrupted iteration
	// still surfaces its best-so-far move
	if bestMove != MoveEmpty && bestScore > -valueInfinity {
		rs.engine.updateMainLine(rs.depth, bestScore, bestLine)
	}
}

func (e *Engine) updateMainLine(depth, score int, line []Move) {
	e.mu.Lock()
	if depth > e.mainLine.depth ||
		(depth == e.mainLine.depth && score > e.mainLine.score) {
		e.mainLine = mainLine{moves: line, score: score, depth: depth}
	}
	e.mu.Unlock()
}

const maxIterationDepth = 60

func (e *Engine) iterate(session *session, root *Position, rootMoves []Move, sched *scheduler) {
	defer recoverFromSearchTimeout()

	var tm = e.timeManager
	var maxDepth = maxIterationDepth
	if l := tm.limits.Depth; l > 0 {
		maxDepth = Min(maxDepth, l)
	}

	var prevScore = 0
	var prevBest = MoveEmpty
	for depth := 1; depth <= maxDepth; depth++ {
		const window = 25
		var alpha, beta = -valueInfinity, valueInfinity
		var useAspiration = e.Options.AspirationWindows && depth >= 5 &&
			prevScore > valueLoss && prevScore < valueWin
		if useAspiration {
			alpha = Max(-valueInfinity, prevScore-window)
			beta = Min(valueInfinity, prevScore+window)
		}

		var failures = 0
		var widening = window
		for {
			var rs = e.newRootSearch(root, depth, alpha, beta, prevBest)
			e.runIteration(session, rs, rootMoves, sched)
			if session.stopRequested() || tm.IsDone() {
				return
			}

			if rs.bestScore >= beta && beta < valueInfinity {
				widening *= 2
				beta = Min(valueInfinity, rs.bestScore+widening)
				failures++
			} else if rs.bestScore <= alpha && alpha > -valueInfinity {
				widening *= 2
				alpha = Max(-valueInfinity, rs.bestScore-widening)
				failures++
			} else {
				prevScore = rs.bestScore
				if rs.bestMove != MoveEmpty {
					prevBest = rs.bestMove
					if i := findMoveIndex(rootMoves, rs.bestMove); i > 0 {
						moveToBegin(rootMoves, i)
					}
				}
				break
			}
			// two consecutive window failures drop back to full width
			if failures >= 2 {
				alpha, beta = -valueInfinity, valueInfinity
			}
		}

		session.depth.Store(int32(depth))
		if e.progress != nil {
			e.progress(e.currentSearchInfo())
		}
		if tm.IsDone() {
			return
		}
	}
}

func (e *Engine) runIteration(session *session, rs *rootSearch, rootMoves []Move, sched *scheduler) {
	if sched == nil {
		// single thread: no queue machinery at all
		var t = &e.threads[0]
		for _, move := range rootMoves {
			if session.stopRequested() || rs.finished() {
				break
			}
			rs.searchMove(t, move)
		}
		return
	}

	sched.submit(makeBatches(rs, rootMoves, len(e.threads)))
	for {
		if sched.pending.Load() == 0 {
			return
		}
		if session.stopRequested() || e.timeManager.IsDone() || rs.finished() {
			sched.drainAll()
		}
		// the driver doubles as worker zero
		if item, ok := sched.getJob(0); ok {
			e.processBatch(&e.threads[0], item, sched)
			continue
		}
		select {
		case <-sched.notify:
		case <-time.After(time.Millisecond):
		}
	}
}

func (e *Engine) worker(sched *scheduler, id int) {
	var t = &e.threads[id]
	var misses = 0
	for !sched.closed.Load() {
		var item, ok = sched.getJob(id)
		if !ok {
			misses++
			sched.rest(misses)
			continue
		}
		misses = 0
		e.processBatch(t, item, sched)
	}
}

func (e *Engine) processBatch(t *thread, item workItem, sched *scheduler) {
	defer sched.finishItem()
	defer recoverFromSearchTimeout()
	for _, move := range item.moves {
		if item.rs.finished() || e.timeManager.IsDone() {
			break
		}
		item.rs.searchMove(t, move)
	}
}
