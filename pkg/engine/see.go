package engine

import . "github.com/hayabusa-shogi/hayabusa/pkg/shogi"

func seeGEZero(p *Position, move Move) bool {
	return SeeGE(p, move, 0)
}

// seeMargin converts the exchange units used by SEE into a depth-scaled
// pruning threshold.
func seeMargin(depth int, noisy bool, staticEval, alpha int) int {
	if noisy {
		return Max(depth, (staticEval+pawnValue-alpha)/pawnValue)
	}
	return depth / 2
}
