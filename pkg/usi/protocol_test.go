package usi

import (
	"fmt"
	"testing"

	"github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

func TestParseLimits(t *testing.T) {
	var limits = parseLimits([]string{
		"btime", "60000", "wtime", "50000",
		"binc", "1000", "winc", "2000",
		"byoyomi", "30000", "periods", "3",
	})
	if limits.BlackTime != 60000 || limits.WhiteTime != 50000 ||
		limits.BlackInc != 1000 || limits.WhiteInc != 2000 ||
		limits.ByoyomiTime != 30000 || limits.ByoyomiPeriods != 3 {
		t.Fatalf("parsed %+v", limits)
	}
	if !parseLimits([]string{"ponder", "btime", "60000"}).Ponder {
		t.Fatal("ponder flag not parsed")
	}
	if !parseLimits([]string{"infinite"}).Infinite {
		t.Fatal("infinite flag not parsed")
	}
}

func TestParseLimitsTruncated(t *testing.T) {
	// a value token at the end of the line has nothing after it
	for _, args := range [][]string{
		{"btime"},
		{"wtime", "50000", "btime"},
		{"byoyomi", "30000", "periods"},
	} {
		var limits = parseLimits(args)
		if limits.BlackTime != 0 && args[len(args)-1] == "btime" {
			t.Fatalf("args %v: BlackTime = %v", args, limits.BlackTime)
		}
	}
}

func TestBestMoveToUsi(t *testing.T) {
	var p, err = shogi.NewPositionFromSFEN(shogi.InitialPositionSFEN)
	if err != nil {
		t.Fatal(err)
	}
	var buffer [shogi.MaxMoves]shogi.OrderedMove
	var ml = p.GenerateMoves(buffer[:])
	var m1, m2 = ml[0].Move, ml[1].Move

	var enabled = true
	var disabled = false
	var cases = []struct {
		ponder *bool
		si     shogi.SearchInfo
		want   string
	}{
		{&enabled, shogi.SearchInfo{MainLine: []shogi.Move{m1, m2}},
			fmt.Sprintf("bestmove %v ponder %v", m1, m2)},
		{&enabled, shogi.SearchInfo{MainLine: []shogi.Move{m1}},
			fmt.Sprintf("bestmove %v", m1)},
		{&disabled, shogi.SearchInfo{MainLine: []shogi.Move{m1, m2}},
			fmt.Sprintf("bestmove %v", m1)},
		{nil, shogi.SearchInfo{MainLine: []shogi.Move{m1, m2}},
			fmt.Sprintf("bestmove %v", m1)},
		{&enabled, shogi.SearchInfo{Resign: true}, "bestmove resign"},
	}
	for i, c := range cases {
		var proto = &Protocol{ponder: c.ponder}
		if got := proto.bestMoveToUsi(c.si); got != c.want {
			t.Errorf("case %v: %q, want %q", i, got, c.want)
		}
	}
}
