package engine

import (
	"math"
)

// Options is read by value at the start of each search session; changing it
// mid-search has no effect until the next go command.
type Options struct {
	Hash       int
	Threads    int
	BucketSize int
	Ponder     bool

	AspirationWindows bool
	NullMovePruning   bool
	Razoring          bool
	IID               bool
	Probcut           bool
	Lmr               bool
	Lmp               bool
	Futility          bool
	See               bool
	CheckExt          bool
	SingularExt       bool

	RazorMargin    int
	ProbcutMargin  int
	FutilityMargin int

	PVBaseThresholdMs int
	PVDepthSlopeMs    int
	MoveOverheadMs    int
	ByoyomiPeriods    int

	reductions [64][64]int8
}

func NewDefaultOptions() Options {
	var o = Options{
		Hash:       128,
		Threads:    1,
		BucketSize: 4,

		AspirationWindows: true,
		NullMovePruning:   true,
		Razoring:          true,
		IID:               true,
		Probcut:           true,
		Lmr:               true,
		Lmp:               true,
		Futility:          true,
		See:               true,
		CheckExt:          true,
		SingularExt:       true,

		RazorMargin:    3 * pawnValue,
		ProbcutMargin:  2 * pawnValue,
		FutilityMargin: pawnValue,

		PVBaseThresholdMs: 150,
		PVDepthSlopeMs:    10,
		MoveOverheadMs:    100,
		ByoyomiPeriods:    1,
	}
	o.initLmr()
	return o
}

func (o *Options) initLmr() {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			var r = math.Log(float64(d)) * math.Log(float64(m)) / 2.25
			o.reductions[d][m] = int8(r)
		}
	}
}

func (o *Options) LmrValue(depth, movesSearched int) int {
	if depth > 63 {
		depth = 63
	}
	if movesSearched > 63 {
		movesSearched = 63
	}
	return int(o.reductions[depth][movesSearched])
}
