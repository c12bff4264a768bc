package shogi

import (
	"errors"
)

// Move packs from, to, the moving and captured piece types, and two flags
// into 24 bits, so the transposition table can store a move together with an
// 8-bit generation in a single uint32.
type Move uint32

const MoveEmpty Move = 0

const (
	moveFlagPromotion = 1 << 22
	moveFlagDrop      = 1 << 23
)

func NewMove(from, to, movingPiece, capturedPiece int) Move {
	return Move(to ^ (from << 7) ^ (movingPiece << 14) ^ (capturedPiece << 18))
}

func NewPromotionMove(from, to, movingPiece, capturedPiece int) Move {
	return NewMove(from, to, movingPiece, capturedPiece) ^ moveFlagPromotion
}

// NewDropMove keeps the from field disjoint from board squares, so drops get
// their own slots in the butterfly history tables.
func NewDropMove(to, piece int) Move {
	return NewMove(SquareNb+piece, to, piece, Empty) ^ moveFlagDrop
}

func (m Move) From() int {
	return int(m>>7) & 127
}

func (m Move) To() int {
	return int(m) & 127
}

func (m Move) MovingPiece() int {
	return int(m>>14) & 15
}

func (m Move) CapturedPiece() int {
	return int(m>>18) & 15
}

func (m Move) IsPromotion() bool {
	return m&moveFlagPromotion != 0
}

func (m Move) IsDrop() bool {
	return m&moveFlagDrop != 0
}

// FinalPiece is the piece standing on the destination square after the move.
func (m Move) FinalPiece() int {
	if m.IsPromotion() {
		return promotedPiece[m.MovingPiece()]
	}
	return m.MovingPiece()
}

var promotedPiece = [PIECE_NB]int{
	Pawn:   Tokin,
	Lance:  PromotedLance,
	Knight: PromotedKnight,
	Silver: PromotedSilver,
	Bishop: Horse,
	Rook:   Dragon,
}

var unpromotedPiece = [PIECE_NB]int{
	Pawn: Pawn, Lance: Lance, Knight: Knight, Silver: Silver, Gold: Gold,
	Bishop: Bishop, Rook: Rook, King: King,
	Tokin: Pawn, PromotedLance: Lance, PromotedKnight: Knight,
	PromotedSilver: Silver, Horse: Bishop, Dragon: Rook,
}

var pieceLetters = [PIECE_NB]string{
	Pawn: "P", Lance: "L", Knight: "N", Silver: "S", Gold: "G",
	Bishop: "B", Rook: "R", King: "K",
	Tokin: "+P", PromotedLance: "+L", PromotedKnight: "+N",
	PromotedSilver: "+S", Horse: "+B", Dragon: "+R",
}

func (m Move) String() string {
	if m == MoveEmpty {
		return "0000"
	}
	if m.IsDrop() {
		return pieceLetters[m.MovingPiece()] + "*" + SquareName(m.To())
	}
	var s = SquareName(m.From()) + SquareName(m.To())
	if m.IsPromotion() {
		s += "+"
	}
	return s
}

// ParseMoveUSI rebuilds a move from its USI string against a position, then
// verifies it is actually among the generated moves.
func ParseMoveUSI(p *Position, s string) (Move, error) {
	if len(s) < 4 {
		return MoveEmpty, errors.New("invalid move: " + s)
	}
	var move Move
	if s[1] == '*' {
		var piece = Empty
		for pt := Pawn; pt <= Rook; pt++ {
			if pieceLetters[pt] == s[:1] {
				piece = pt
				break
			}
		}
		to, err := ParseSquare(s[2:4])
		if piece == Empty || err != nil {
			return MoveEmpty, errors.New("invalid move: " + s)
		}
		move = NewDropMove(to, piece)
	} else {
		from, err1 := ParseSquare(s[0:2])
		to, err2 := ParseSquare(s[2:4])
		if err1 != nil || err2 != nil {
			return MoveEmpty, errors.New("invalid move: " + s)
		}
		var moving = pieceOn(p, from)
		var captured = pieceOn(p, to)
		if s[len(s)-1] == '+' {
			move = NewPromotionMove(from, to, moving, captured)
		} else {
			move = NewMove(from, to, moving, captured)
		}
	}
	var buffer [MaxMoves]OrderedMove
	for _, ml := range p.GenerateMoves(buffer[:]) {
		if ml.Move == move {
			return move, nil
		}
	}
	return MoveEmpty, errors.New("illegal move: " + s)
}

func pieceOn(p *Position, sq int) int {
	var pc = p.board[mailbox(sq)]
	if pc < 0 {
		pc = -pc
	}
	return int(pc)
}
