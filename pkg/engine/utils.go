package engine

import (
	. "github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

const (
	stackSize     = 128
	maxHeight     = stackSize - 1
	valueDraw     = 0
	valueMate     = 30000
	valueInfinity = valueMate + 1
	valueWin      = valueMate - 2*maxHeight
	valueLoss     = -valueWin
)

const pawnValue = 90

func winIn(height int) int {
	return valueMate - height
}

func lossIn(height int) int {
	return -valueMate + height
}

func valueToTT(v, height int) int {
	if v >= valueWin {
		return v + height
	}

	if v <= valueLoss {
		return v - height
	}

	return v
}

func valueFromTT(v, height int) int {
	if v >= valueWin {
		return v - height
	}

	if v <= valueLoss {
		return v + height
	}

	return v
}

// USI reports mate distance in plies
func newUsiScore(v int) UsiScore {
	if v >= valueWin {
		return UsiScore{Mate: valueMate - v}
	} else if v <= valueLoss {
		return UsiScore{Mate: -(valueMate + v)}
	} else {
		return UsiScore{Centipawns: v}
	}
}

func isCaptureOrPromotion(move Move) bool {
	return move.CapturedPiece() != Empty || move.IsPromotion()
}

func findMoveIndex(ml []Move, move Move) int {
	for i := range ml {
		if ml[i] == move {
			return i
		}
	}
	return -1
}

func moveToBegin(ml []Move, index int) {
	if index == 0 {
		return
	}
	var item = ml[index]
	for i := index; i > 0; i-- {
		ml[i] = ml[i-1]
	}
	ml[0] = item
}
