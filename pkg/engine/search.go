package engine

import (
	. "github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

// searchRootMove searches one root move on this thread's stack and returns
// the score with the line below it.
func (t *thread) searchRootMove(root *Position, move Move, alpha, beta, depth int) (int, []Move) {
	t.stack[0].position = *root
	t.clearPV(1)
	if !t.MakeMove(move, 0) {
		return -valueInfinity, nil
	}
	var score = -t.alphaBeta(-beta, -alpha, depth-1, 1, MoveEmpty)
	var line = append([]Move{move}, t.stack[1].pv.toSlice()...)
	return score, line
}

// main search method
func (t *thread) alphaBeta(alpha, beta, depth, height int, skipMove Move) int {
	if depth <= 0 {
		return t.quiescence(alpha, beta, 0, height)
	}
	t.clearPV(height)

	var pvNode = beta != alpha+1
	var position = &t.stack[height].position
	var isCheck = position.IsCheck()
	var ttMoveIsSingular = false

	if height >= maxHeight {
		return t.engine.evaluator.Evaluate(position)
	}
	if t.isRepeat(height) {
		return valueDraw
	}
	// mate distance pruning
	if winIn(height+1) <= alpha {
		return alpha
	}
	if lossIn(height+2) >= beta && !isCheck {
		return beta
	}

	// transposition table
	var (
		ttDepth, ttValue, ttBound, ttEval int
		ttMove                            Move
		ttHit                             bool
	)
	if skipMove == MoveEmpty {
		ttDepth, ttValue, ttBound, ttMove, ttEval, ttHit = t.engine.transTable.Read(position.Key)
	}
	if ttHit {
		ttValue = valueFromTT(ttValue, height)
		if ttDepth >= depth && !pvNode && position.LastMove != MoveEmpty {
			if ttValue >= beta && (ttBound&boundLower) != 0 {
				if ttMove != MoveEmpty && !isCaptureOrPromotion(ttMove) {
					t.updateKiller(ttMove, height)
				}
				return ttValue
			}
			if ttValue <= alpha && (ttBound&boundUpper) != 0 {
				return ttValue
			}
		}
	}

	var staticEval int
	if ttHit {
		staticEval = ttEval
	} else {
		staticEval = t.engine.evaluator.Evaluate(position)
	}
	t.stack[height].staticEval = staticEval
	var improving = height < 2 || staticEval > t.stack[height-2].staticEval

	var options = &t.engine.Options
	if height+2 <= maxHeight {
		t.stack[height+2].killer1 = MoveEmpty
		t.stack[height+2].killer2 = MoveEmpty
	}
	var child = &t.stack[height+1].position

	if skipMove == MoveEmpty && !isCheck && !pvNode {

		// null-move pruning
		if options.NullMovePruning && depth >= 2 &&
			position.LastMove != MoveEmpty &&
			(height <= 1 || t.stack[height-1].position.LastMove != MoveEmpty) &&
			beta < valueWin &&
			!(ttHit && ttValue < beta && (ttBound&boundUpper) != 0) &&
			staticEval >= beta {
			var reduction = 4 + depth/6 + Min(2, (staticEval-beta)/200)
			t.MakeMove(MoveEmpty, height)
			var score = -t.alphaBeta(-beta, -(beta - 1), depth-reduction, height+1, MoveEmpty)
			if score >= beta {
				if score >= valueWin {
					score = beta
				}
				return score
			}
		}

		// razoring
		if options.Razoring && depth <= 2 &&
			staticEval+options.RazorMargin*depth <= alpha &&
			alpha > valueLoss && beta < valueWin {
			var score = t.quiescence(alpha, alpha+1, 0, height)
			if score <= alpha {
				return score
			}
		}
	}

	// internal iterative deepening: a shallow self-search purely to fill in
	// an ordering move
	if options.IID && depth >= 4 && ttMove == MoveEmpty &&
		skipMove == MoveEmpty &&
		(pvNode || staticEval+pawnValue >= beta) {
		t.alphaBeta(alpha, beta, depth-2, height, MoveEmpty)
		_, _, _, ttMove, _, _ = t.engine.transTable.Read(position.Key)
	}

	if skipMove == MoveEmpty && !pvNode && !isCheck {
		var probcutBeta = Min(valueWin-1, beta+options.ProbcutMargin)
		if options.Probcut && depth >= 5 &&
			beta > valueLoss && beta < valueWin &&
			!(ttHit && ttDepth >= depth-4 && ttValue < probcutBeta && (ttBound&boundUpper) != 0) {

			var mi = moveIteratorQS{
				position: position,
				buffer:   t.stack[height].moveList[:],
			}
			mi.Init()

			for mi.Reset(); ; {
				var move = mi.Next()
				if move == MoveEmpty {
					break
				}
				if !seeGEZero(position, move) {
					continue
				}
				if !t.MakeMove(move, height) {
					continue
				}
				var score = -t.quiescence(-probcutBeta, -probcutBeta+1, 0, height+1)
				if score >= probcutBeta {
					score = -t.alphaBeta(-probcutBeta, -probcutBeta+1, depth-4, height+1, MoveEmpty)
				}
				if score >= probcutBeta {
					return score
				}
			}
		}

		// singular extension
		if options.SingularExt && depth >= 8 &&
			ttHit && ttMove != MoveEmpty &&
			(ttBound&boundLower) != 0 && ttDepth >= depth-3 &&
			ttValue > valueLoss && ttValue < valueWin {
			var singularBeta = Max(-valueInfinity, ttValue-depth)
			var score = t.alphaBeta(singularBeta-1, singularBeta, depth/2, height, ttMove)
			ttMoveIsSingular = score < singularBeta
		}
	}

	var historyContext = t.getHistoryContext(height)

	var mi = t.initMoveIterator(height, ttMove)
	var killer1 = t.stack[height].killer1
	var killer2 = t.stack[height].killer2

	var movesSearched = 0
	var hasLegalMove = false
	var quietsSeen = 0

	var quietsSearched = t.stack[height].quietsSearched[:0]
	var bestMove Move

	var lmp = 5 + (depth-1)*depth
	if !improving {
		lmp /= 2
	}

	var best = -valueInfinity
	var oldAlpha = alpha

	for mi.Reset(); ; {
		var move = mi.Next()
		if move == MoveEmpty {
			break
		}
		if move == skipMove {
			continue
		}
		var isNoisy = isCaptureOrPromotion(move)
		if !isNoisy {
			quietsSeen++
		}

		if depth <= 8 && best > valueLoss && hasLegalMove && !isCheck {
			// late-move pruning
			if options.Lmp && !(isNoisy ||
				move == killer1 ||
				move == killer2) &&
				quietsSeen > lmp {
				continue
			}

			// futility pruning
			if options.Futility && !(isNoisy ||
				move == killer1 ||
				move == killer2) &&
				staticEval+options.FutilityMargin+pawnValue*depth <= alpha {
				continue
			}

			// SEE pruning
			if options.See &&
				!SeeGE(position, move, -seeMargin(depth, isNoisy, staticEval, alpha)) {
				continue
			}
		}

		if !t.MakeMove(move, height) {
			continue
		}
		hasLegalMove = true
		movesSearched++

		var extension, reduction int

		if options.CheckExt && child.IsCheck() && depth >= 3 {
			extension = 1
		}
		if move == ttMove && ttMoveIsSingular {
			extension = 1
		}

		if options.Lmr && depth >= 3 && movesSearched > 1 && !isNoisy {
			reduction = options.LmrValue(depth, movesSearched)
			if move == killer1 || move == killer2 {
				reduction--
			}
			if !isCheck {
				var history = historyContext.ReadTotal(move)
				reduction -= Max(-2, Min(2, history/5000))

				if !improving {
					reduction++
				}
			}
			if pvNode {
				reduction -= 2
			}
			if isCheck || child.IsCheck() {
				reduction--
			}
			reduction = Max(0, Min(depth-2, reduction))
		}

		if !isNoisy {
			quietsSearched = append(quietsSearched, move)
		}

		var newDepth = depth - 1 + extension

		var score = alpha + 1
		// LMR
		if reduction > 0 {
			score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth-reduction, height+1, MoveEmpty)
		}
		// PVS
		if score > alpha && beta != alpha+1 && movesSearched > 1 && newDepth > 0 {
			score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth, height+1, MoveEmpty)
		}
		// full window
		if score > alpha {
			score = -t.alphaBeta(-beta, -alpha, newDepth, height+1, MoveEmpty)
		}

		if score > best {
			best = score
			bestMove = move
		}
		if score > alpha {
			alpha = score
			t.assignPV(height, move)
			if alpha >= beta {
				break
			}
		}
	}

	if !hasLegalMove {
		// no moves at all is a loss in shogi, stalemate included
		if skipMove != MoveEmpty {
			return alpha
		}
		return lossIn(height)
	}

	if alpha > oldAlpha && bestMove != MoveEmpty && !isCaptureOrPromotion(bestMove) {
		historyContext.Update(quietsSearched, bestMove, depth)
		t.updateKiller(bestMove, height)
	}

	if skipMove == MoveEmpty {
		ttBound = 0
		if best > oldAlpha {
			ttBound |= boundLower
		}
		if best < beta {
			ttBound |= boundUpper
		}
		t.engine.transTable.Update(position.Key, depth, valueToTT(best, height), ttBound, bestMove, staticEval)
	}

	return best
}

// quiet checks are only generated at the first quiescence ply, and only a
// handful are tried per node
const qsCheckLimit = 4

func (t *thread) quiescence(alpha, beta, depth, height int) int {
	t.clearPV(height)
	var position = &t.stack[height].position
	if height >= maxHeight {
		return t.engine.evaluator.Evaluate(position)
	}
	if t.isRepeat(height) {
		return valueDraw
	}

	var _, ttValue, ttBound, _, ttEval, ttHit = t.engine.transTable.Read(position.Key)
	if ttHit {
		ttValue = valueFromTT(ttValue, height)
		if ttBound == boundExact ||
			ttBound == boundLower && ttValue >= beta ||
			ttBound == boundUpper && ttValue <= alpha {
			return ttValue
		}
	}

	var isCheck = position.IsCheck()
	var best = -valueInfinity
	if !isCheck {
		var eval int
		if ttHit {
			eval = ttEval
		} else {
			eval = t.engine.evaluator.Evaluate(position)
		}
		best = Max(best, eval)
		if eval > alpha {
			alpha = eval
			if alpha >= beta {
				return alpha
			}
		}
	}
	var mi = moveIteratorQS{
		position:  position,
		buffer:    t.stack[height].moveList[:],
		genChecks: !isCheck && depth == 0,
	}
	mi.Init()
	var hasLegalMove = false
	var checksTried = 0
	for mi.Reset(); ; {
		var move = mi.Next()
		if move == MoveEmpty {
			break
		}
		if !isCheck {
			if !isCaptureOrPromotion(move) {
				if checksTried >= qsCheckLimit {
					continue
				}
				checksTried++
			}
			if !seeGEZero(position, move) {
				continue
			}
		}
		if !t.MakeMove(move, height) {
			continue
		}
		hasLegalMove = true
		var score = -t.quiescence(-beta, -alpha, depth-1, height+1)
		best = Max(best, score)
		if score > alpha {
			alpha = score
			t.assignPV(height, move)
			if alpha >= beta {
				break
			}
		}
	}
	if isCheck && !hasLegalMove {
		return lossIn(height)
	}
	return best
}
