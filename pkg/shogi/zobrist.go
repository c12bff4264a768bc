package shogi

var (
	sideKey   uint64
	pieceKeys [2][PIECE_NB][SquareNb]uint64
	handKeys  [2][handPieceNb][19]uint64
)

func init() {
	var r = rng{seed: 0x9f38e1a52c4d77b1}
	sideKey = r.next()
	for side := 0; side < 2; side++ {
		for piece := Pawn; piece < PIECE_NB; piece++ {
			for sq := 0; sq < SquareNb; sq++ {
				pieceKeys[side][piece][sq] = r.next()
			}
		}
		for piece := Pawn; piece < handPieceNb; piece++ {
			for count := 1; count < 19; count++ {
				handKeys[side][piece][count] = r.next()
			}
		}
	}
}

// splitmix64
type rng struct {
	seed uint64
}

func (r *rng) next() uint64 {
	r.seed += 0x9e3779b97f4a7c15
	var z = r.seed
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func pieceKey(sq int, pc int8) uint64 {
	if pc > 0 {
		return pieceKeys[SideBlack][pc][sq]
	}
	return pieceKeys[SideWhite][-pc][sq]
}
