package shogi

import (
	"errors"
	"fmt"
)

// Squares are numbered 0..80, rank a..i top to bottom, file 1..9 right to
// left in the usual diagram orientation. Black (sente) moves toward rank a.
const (
	SquareNone = -1
	SquareNb   = 81
)

func MakeSquare(file, rank int) int {
	return rank*9 + file
}

func File(sq int) int {
	return sq % 9
}

func Rank(sq int) int {
	return sq / 9
}

func SquareName(sq int) string {
	return fmt.Sprintf("%v%v", File(sq)+1, string(rune('a'+Rank(sq))))
}

func ParseSquare(s string) (int, error) {
	if len(s) != 2 ||
		s[0] < '1' || s[0] > '9' ||
		s[1] < 'a' || s[1] > 'i' {
		return SquareNone, errors.New("invalid square: " + s)
	}
	return MakeSquare(int(s[0]-'1'), int(s[1]-'a')), nil
}

// The board array is an 11x13 mailbox with a one-file and two-rank border of
// sentinel squares, so knight jumps never index outside the array.
const (
	mbWidth  = 11
	mbHeight = 13
	mbSize   = mbWidth * mbHeight
)

func mailbox(sq int) int {
	return (Rank(sq)+2)*mbWidth + File(sq) + 1
}

var mailboxToSquare [mbSize]int8

func init() {
	for i := range mailboxToSquare {
		mailboxToSquare[i] = SquareNone
	}
	for sq := 0; sq < SquareNb; sq++ {
		mailboxToSquare[mailbox(sq)] = int8(sq)
	}
}

func promotionZone(rank int, white bool) bool {
	if white {
		return rank >= 6
	}
	return rank <= 2
}

func lastRank(rank int, white bool) bool {
	if white {
		return rank == 8
	}
	return rank == 0
}

func lastTwoRanks(rank int, white bool) bool {
	if white {
		return rank >= 7
	}
	return rank <= 1
}
