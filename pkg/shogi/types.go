package shogi

import (
	"strconv"
	"time"
)

const (
	Empty int = iota
	Pawn
	Lance
	Knight
	Silver
	Gold
	Bishop
	Rook
	King
	Tokin
	PromotedLance
	PromotedKnight
	PromotedSilver
	Horse
	Dragon
	PIECE_NB
)

const (
	SideBlack = 0
	SideWhite = 1
)

const MaxMoves = 600

const InitialPositionSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

// The hand array is indexed by unpromoted piece type, Pawn..Rook.
const handPieceNb = Rook + 1

type OrderedMove struct {
	Move Move
	Key  int32
}

type LimitsType struct {
	Ponder         bool
	Infinite       bool
	BlackTime      int
	WhiteTime      int
	BlackInc       int
	WhiteInc       int
	ByoyomiTime    int
	ByoyomiPeriods int
	MoveTime       int
	MovesToGo      int
	Depth          int
	Nodes          int
}

type SearchParams struct {
	Positions []Position
	Limits    LimitsType
	Progress  func(si SearchInfo)
}

type SearchInfo struct {
	Score    UsiScore
	Depth    int
	Nodes    int64
	Time     time.Duration
	MainLine []Move
	Hashfull int
	Resign   bool
}

type UsiScore struct {
	Centipawns int
	Mate       int
}

func (s UsiScore) String() string {
	if s.Mate != 0 {
		return "mate " + strconv.Itoa(s.Mate)
	}
	return "cp " + strconv.Itoa(s.Centipawns)
}
