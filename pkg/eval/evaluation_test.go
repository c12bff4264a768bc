package eval

import (
	"testing"

	"github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

func TestEvaluateSymmetry(t *testing.T) {
	var e = NewEvaluationService()

	var p, err = shogi.NewPositionFromSFEN(shogi.InitialPositionSFEN)
	if err != nil {
		t.Fatal(err)
	}
	if v := e.Evaluate(&p); v != 0 {
		t.Errorf("initial position eval = %v", v)
	}

	// same position, other side to move
	var sfens = []string{
		"lnsgk2nl/1r4gs1/p1pppp1pp/1p4p2/7P1/2P6/PP1PPPP1P/1SG4R1/LN2KGSNL b Bb 9",
		"8l/1l+R2P3/p2pBG1pp/kps1p4/Nn1P2G2/P1P1P2PP/1PS6/1KSG3+r1/LN2+p3L w Sbgn3p 124",
	}
	for _, sfen := range sfens {
		p1, err := shogi.NewPositionFromSFEN(sfen)
		if err != nil {
			t.Fatal(err)
		}
		var p2 = p1
		p1.MakeNullMove(&p2)
		if e.Evaluate(&p1) != -e.Evaluate(&p2) {
			t.Errorf("eval not antisymmetric in side to move: %v", sfen)
		}
	}
}

func TestEvaluateMaterial(t *testing.T) {
	var e = NewEvaluationService()
	var p, err = shogi.NewPositionFromSFEN("4k4/9/9/9/9/9/9/9/4K4 b P 1")
	if err != nil {
		t.Fatal(err)
	}
	if e.Evaluate(&p) <= 0 {
		t.Error("extra pawn in hand should score positive")
	}
}
