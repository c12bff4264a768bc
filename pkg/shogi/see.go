package shogi

var seePieceValues = [PIECE_NB]int{
	Pawn: 1, Lance: 3, Knight: 3, Silver: 5, Gold: 6,
	Bishop: 8, Rook: 10, King: 120,
	Tokin: 6, PromotedLance: 6, PromotedKnight: 6, PromotedSilver: 6,
	Horse: 10, Dragon: 12,
}

func SeeValue(piece int) int {
	return seePieceValues[piece]
}

// SeeGE reports whether the static exchange on the destination square nets
// at least threshold. Swap algorithm on a scratch board; removing a captured
// attacker re-opens sliders behind it on the next scan.
func SeeGE(pos *Position, move Move, threshold int) bool {
	var board = pos.board
	var to = mailbox(move.To())
	var white = pos.WhiteMove

	var nextVictim = move.FinalPiece()
	var balance = seePieceValues[move.CapturedPiece()] - threshold
	if move.IsPromotion() {
		balance += seePieceValues[move.FinalPiece()] - seePieceValues[move.MovingPiece()]
	}
	if balance < 0 {
		return false
	}
	balance -= seePieceValues[nextVictim]
	if balance >= 0 {
		return true
	}

	if !move.IsDrop() {
		board[mailbox(move.From())] = 0
	}
	var pc = int8(nextVictim)
	if white {
		pc = -pc
	}
	board[to] = pc

	var stm = !white
	for {
		var attackerSq, attackerType = leastValuableAttacker(&board, to, stm)
		if attackerSq < 0 {
			break
		}
		board[attackerSq] = 0
		var npc = int8(attackerType)
		if stm {
			npc = -npc
		}
		board[to] = npc

		balance = -balance - 1 - seePieceValues[attackerType]
		stm = !stm
		if balance >= 0 {
			if attackerType == King {
				if sq, _ := leastValuableAttacker(&board, to, stm); sq >= 0 {
					stm = !stm
				}
			}
			break
		}
	}
	return stm != white
}

func leastValuableAttacker(board *[mbSize]int8, target int, byWhite bool) (bestSq, bestType int) {
	bestSq, bestType = -1, Empty
	var bestValue = seePieceValues[King] + 1

	var consider = func(sq, pt int) {
		if seePieceValues[pt] < bestValue {
			bestSq, bestType, bestValue = sq, pt, seePieceValues[pt]
		}
	}

	for i, d := range dirs8 {
		var sq = target + d
		var pc = board[sq]
		var dist1 = true
		for pc == 0 {
			sq += d
			pc = board[sq]
			dist1 = false
		}
		if pc == borderMark {
			continue
		}
		var pt int
		if byWhite {
			if pc >= 0 {
				continue
			}
			pt = int(-pc)
		} else {
			if pc <= 0 {
				continue
			}
			pt = int(pc)
		}
		var bit = uint8(1) << (7 - i)
		if byWhite {
			bit = 1 << i
		}
		if (dist1 && stepMasks[pt]&bit != 0) || slideMasks[pt]&bit != 0 {
			consider(sq, pt)
		}
	}

	if byWhite {
		if board[target-21] == int8(-Knight) {
			consider(target-21, Knight)
		}
		if board[target-23] == int8(-Knight) {
			consider(target-23, Knight)
		}
	} else {
		if board[target+21] == int8(Knight) {
			consider(target+21, Knight)
		}
		if board[target+23] == int8(Knight) {
			consider(target+23, Knight)
		}
	}
	return bestSq, bestType
}
