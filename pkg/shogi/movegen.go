package shogi

var (
	stepDeltas  [PIECE_NB][]int
	slideDeltas [PIECE_NB][]int
)

func init() {
	for pt := Pawn; pt < PIECE_NB; pt++ {
		for i, d := range dirs8 {
			if stepMasks[pt]&(1<<i) != 0 {
				stepDeltas[pt] = append(stepDeltas[pt], d)
			}
			if slideMasks[pt]&(1<<i) != 0 {
				slideDeltas[pt] = append(slideDeltas[pt], d)
			}
		}
	}
}

// GenerateMoves fills ml with pseudo-legal moves including drops; king
// safety is left to MakeMove. Illegal pawn drops (nifu, last rank,
// drop-pawn-mate) are filtered here.
func (p *Position) GenerateMoves(ml []OrderedMove) []OrderedMove {
	return p.generateMoves(ml[:0], false, true)
}

// GenerateCaptures emits captures and pawn promotions for quiescence.
func (p *Position) GenerateCaptures(ml []OrderedMove) []OrderedMove {
	return p.generateMoves(ml[:0], true, true)
}

// GenerateQuietChecks emits legal non-capture, non-promotion moves that give
// check. Each candidate is played on a scratch position, so the result needs
// no further legality filtering.
func (p *Position) GenerateQuietChecks(ml []OrderedMove) []OrderedMove {
	var all = p.generateMoves(ml[:0], false, true)
	var count = 0
	var child Position
	for i := range all {
		var m = all[i].Move
		if m.CapturedPiece() != Empty || m.IsPromotion() {
			continue
		}
		if !p.MakeMove(m, &child) {
			continue
		}
		if child.IsCheck() {
			all[count] = all[i]
			count++
		}
	}
	return all[:count]
}

func (p *Position) generateMoves(ml []OrderedMove, capturesOnly, checkDropMate bool) []OrderedMove {
	var white = p.WhiteMove
	var sign = 1
	if white {
		sign = -1
	}

	for sq := 0; sq < SquareNb; sq++ {
		var from = mailbox(sq)
		var pc = int(p.board[from])
		if pc == int(borderMark) || pc*sign <= 0 {
			continue
		}
		var pt = pc * sign

		if pt == Knight {
			var d1, d2 = -23, -21
			if white {
				d1, d2 = 23, 21
			}
			ml = p.addJump(ml, sq, from+d1, pt, capturesOnly)
			ml = p.addJump(ml, sq, from+d2, pt, capturesOnly)
			continue
		}

		for _, d := range stepDeltas[pt] {
			ml = p.addJump(ml, sq, from+sign*d, pt, capturesOnly)
		}
		for _, d := range slideDeltas[pt] {
			var delta = sign * d
			for to := from + delta; ; to += delta {
				var tpc = int(p.board[to])
				if tpc == int(borderMark) || tpc*sign > 0 {
					break
				}
				ml = p.addMove(ml, sq, int(mailboxToSquare[to]), pt, tpc*-sign, capturesOnly)
				if tpc != 0 {
					break
				}
			}
		}
	}

	if !capturesOnly {
		ml = p.generateDrops(ml, checkDropMate)
	}
	return ml
}

func (p *Position) addJump(ml []OrderedMove, from81, toMb, pt int, capturesOnly bool) []OrderedMove {
	var sign = 1
	if p.WhiteMove {
		sign = -1
	}
	var tpc = int(p.board[toMb])
	if tpc == int(borderMark) || tpc*sign > 0 {
		return ml
	}
	return p.addMove(ml, from81, int(mailboxToSquare[toMb]), pt, tpc*-sign, capturesOnly)
}

func (p *Position) addMove(ml []OrderedMove, from, to, pt, cap int, capturesOnly bool) []OrderedMove {
	var white = p.WhiteMove
	var canPromote = promotedPiece[pt] != Empty &&
		(promotionZone(Rank(from), white) || promotionZone(Rank(to), white))
	var mustPromote = false
	switch pt {
	case Pawn, Lance:
		mustPromote = lastRank(Rank(to), white)
	case Knight:
		mustPromote = lastTwoRanks(Rank(to), white)
	}
	if canPromote && (!capturesOnly || cap != Empty || pt == Pawn) {
		ml = append(ml, OrderedMove{Move: NewPromotionMove(from, to, pt, cap)})
	}
	if !mustPromote && (!capturesOnly || cap != Empty) {
		ml = append(ml, OrderedMove{Move: NewMove(from, to, pt, cap)})
	}
	return ml
}

func (p *Position) generateDrops(ml []OrderedMove, checkDropMate bool) []OrderedMove {
	var side = p.SideToMove()
	var white = p.WhiteMove
	var hand = &p.Hands[side]

	var hasDrop = false
	for pt := Pawn; pt < handPieceNb; pt++ {
		if hand[pt] > 0 {
			hasDrop = true
			break
		}
	}
	if !hasDrop {
		return ml
	}

	// nifu: no second unpromoted pawn on a file
	var pawnOnFile [9]bool
	if hand[Pawn] > 0 {
		var own = int8(Pawn)
		if white {
			own = -own
		}
		for sq := 0; sq < SquareNb; sq++ {
			if p.board[mailbox(sq)] == own {
				pawnOnFile[File(sq)] = true
			}
		}
	}

	for sq := 0; sq < SquareNb; sq++ {
		if p.board[mailbox(sq)] != 0 {
			continue
		}
		var rank = Rank(sq)
		for pt := Pawn; pt < handPieceNb; pt++ {
			if hand[pt] == 0 {
				continue
			}
			switch pt {
			case Pawn:
				if lastRank(rank, white) || pawnOnFile[File(sq)] {
					continue
				}
				if checkDropMate && p.pawnDropChecks(sq) && p.isDropPawnMate(sq) {
					continue
				}
			case Lance:
				if lastRank(rank, white) {
					continue
				}
			case Knight:
				if lastTwoRanks(rank, white) {
					continue
				}
			}
			ml = append(ml, OrderedMove{Move: NewDropMove(sq, pt)})
		}
	}
	return ml
}

func (p *Position) pawnDropChecks(sq int) bool {
	if p.WhiteMove {
		return int(p.kings[SideBlack]) == mailbox(sq)+11
	}
	return int(p.kings[SideWhite]) == mailbox(sq)-11
}

// isDropPawnMate tests uchifuzume: a pawn drop giving immediate checkmate is
// illegal. The reply generation skips the recursive drop-mate filter; an
// escape that only exists as an illegal drop does not disprove mate.
func (p *Position) isDropPawnMate(sq int) bool {
	var child Position
	if !p.MakeMove(NewDropMove(sq, Pawn), &child) {
		return false
	}
	var buffer [MaxMoves]OrderedMove
	var replies = child.generateMoves(buffer[:0], false, false)
	var g Position
	for i := range replies {
		if child.MakeMove(replies[i].Move, &g) {
			return false
		}
	}
	return true
}
