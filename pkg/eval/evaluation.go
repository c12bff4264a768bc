package eval

import (
	. "github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

var pieceValues = [PIECE_NB]int{
	Pawn: 90, Lance: 315, Knight: 405, Silver: 495, Gold: 540,
	Bishop: 855, Rook: 990,
	Tokin: 600, PromotedLance: 500, PromotedKnight: 510, PromotedSilver: 520,
	Horse: 1000, Dragon: 1200,
}

// A captured piece in hand is worth a bit more than on the board: it can be
// dropped anywhere.
var handValues = [Rook + 1]int{
	Pawn: 100, Lance: 340, Knight: 430, Silver: 530, Gold: 570,
	Bishop: 890, Rook: 1040,
}

// advanceBonus is paid per rank toward the opponent camp.
var advanceBonus = [PIECE_NB]int{
	Pawn: 4, Lance: 2, Knight: 2, Silver: 5, Gold: 5,
	Bishop: 3, Rook: 3,
	Tokin: 3, PromotedLance: 3, PromotedKnight: 3, PromotedSilver: 3,
	Horse: 4, Dragon: 4,
}

var centerBonus = [9]int{0, 2, 4, 6, 8, 6, 4, 2, 0}

var pst [2][PIECE_NB][SquareNb]int

func init() {
	for sq := 0; sq < SquareNb; sq++ {
		var file = File(sq)
		var rank = Rank(sq)
		for pt := Pawn; pt < PIECE_NB; pt++ {
			var blackScore = pieceValues[pt] +
				advanceBonus[pt]*(8-rank) +
				centerBonus[file]
			var whiteScore = pieceValues[pt] +
				advanceBonus[pt]*rank +
				centerBonus[file]
			if pt == King {
				// the king prefers the edge files early; advancement means
				// nothing to it
				blackScore = -centerBonus[file] * 2
				whiteScore = -centerBonus[file] * 2
			}
			pst[SideBlack][pt][sq] = blackScore
			pst[SideWhite][pt][sq] = whiteScore
		}
	}
}

type EvaluationService struct{}

func NewEvaluationService() *EvaluationService {
	return &EvaluationService{}
}

// Evaluate returns the score from the side to move's point of view.
func (e *EvaluationService) Evaluate(p *Position) int {
	var score = 0
	for sq := 0; sq < SquareNb; sq++ {
		var piece, white = p.PieceOn(sq)
		if piece == Empty {
			continue
		}
		if white {
			score -= pst[SideWhite][piece][sq]
		} else {
			score += pst[SideBlack][piece][sq]
		}
	}
	for pt := Pawn; pt <= Rook; pt++ {
		score += handValues[pt] * (p.HandCount(SideBlack, pt) - p.HandCount(SideWhite, pt))
	}
	if p.WhiteMove {
		score = -score
	}
	return score
}
