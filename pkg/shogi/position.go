package shogi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const borderMark int8 = 127

// Position is a mailbox board plus hands. Pieces are stored signed: positive
// for black (sente), negative for white (gote).
type Position struct {
	board      [mbSize]int8
	Hands      [2][handPieceNb]int8
	WhiteMove  bool
	Key        uint64
	LastMove   Move
	MoveNumber int
	kings      [2]int8
}

var dirs8 = [8]int{-12, -11, -10, -1, 1, 10, 11, 12}

// Step and slide capabilities from black's point of view, one bit per dirs8
// entry. A white piece moving along delta behaves like a black one along
// -delta, which is the mirrored bit 7-i.
var stepMasks = [PIECE_NB]uint8{
	Pawn:           1 << 1,
	Silver:         1<<0 | 1<<1 | 1<<2 | 1<<5 | 1<<7,
	Gold:           goldMask,
	Tokin:          goldMask,
	PromotedLance:  goldMask,
	PromotedKnight: goldMask,
	PromotedSilver: goldMask,
	King:           0xff,
	Horse:          1<<1 | 1<<3 | 1<<4 | 1<<6,
	Dragon:         1<<0 | 1<<2 | 1<<5 | 1<<7,
}

const goldMask = 1<<0 | 1<<1 | 1<<2 | 1<<3 | 1<<4 | 1<<6

var slideMasks = [PIECE_NB]uint8{
	Lance:  1 << 1,
	Bishop: 1<<0 | 1<<2 | 1<<5 | 1<<7,
	Horse:  1<<0 | 1<<2 | 1<<5 | 1<<7,
	Rook:   1<<1 | 1<<3 | 1<<4 | 1<<6,
	Dragon: 1<<1 | 1<<3 | 1<<4 | 1<<6,
}

func (p *Position) SideToMove() int {
	if p.WhiteMove {
		return SideWhite
	}
	return SideBlack
}

// PieceOn reports the piece on a 0..80 square; Empty when vacant.
func (p *Position) PieceOn(sq int) (piece int, white bool) {
	var pc = p.board[mailbox(sq)]
	if pc < 0 {
		return int(-pc), true
	}
	return int(pc), false
}

func (p *Position) HandCount(side, piece int) int {
	return int(p.Hands[side][piece])
}

func (p *Position) KingSquare(side int) int {
	return int(mailboxToSquare[p.kings[side]])
}

func (p *Position) IsCheck() bool {
	return p.isAttacked(int(p.kings[p.SideToMove()]), !p.WhiteMove)
}

// isAttacked scans outward from a mailbox square: adjacent enemy steppers,
// enemy sliders behind any run of empty squares, and knight jumps.
func (p *Position) isAttacked(target int, byWhite bool) bool {
	for i, d := range dirs8 {
		var sq = target + d
		var pc = p.board[sq]
		var dist1 = true
		for pc == 0 {
			sq += d
			pc = p.board[sq]
			dist1 = false
		}
		if pc == borderMark {
			continue
		}
		var pt int
		if byWhite {
			if pc >= 0 {
				continue
			}
			pt = int(-pc)
		} else {
			if pc <= 0 {
				continue
			}
			pt = int(pc)
		}
		// the attack runs along -d; for a white piece mirror again
		var bit = uint8(1) << (7 - i)
		if byWhite {
			bit = 1 << i
		}
		if dist1 && stepMasks[pt]&bit != 0 {
			return true
		}
		if slideMasks[pt]&bit != 0 {
			return true
		}
	}
	if byWhite {
		if p.board[target-21] == int8(-Knight) || p.board[target-23] == int8(-Knight) {
			return true
		}
	} else {
		if p.board[target+21] == int8(Knight) || p.board[target+23] == int8(Knight) {
			return true
		}
	}
	return false
}

func (p *Position) MakeMove(m Move, child *Position) bool {
	*child = *p
	var white = p.WhiteMove
	var side = p.SideToMove()
	var to = mailbox(m.To())

	if m.IsDrop() {
		var pt = m.MovingPiece()
		child.Hands[side][pt]--
		var c = child.Hands[side][pt]
		child.Key ^= handKeys[side][pt][c+1] ^ handKeys[side][pt][c]
		var pc = int8(pt)
		if white {
			pc = -pc
		}
		child.board[to] = pc
		child.Key ^= pieceKey(m.To(), pc)
	} else {
		var from = mailbox(m.From())
		child.Key ^= pieceKey(m.From(), p.board[from])
		child.board[from] = 0
		if cap := m.CapturedPiece(); cap != Empty {
			child.Key ^= pieceKey(m.To(), p.board[to])
			var handPt = unpromotedPiece[cap]
			child.Hands[side][handPt]++
			var c = child.Hands[side][handPt]
			child.Key ^= handKeys[side][handPt][c-1] ^ handKeys[side][handPt][c]
		}
		var final = m.FinalPiece()
		var fpc = int8(final)
		if white {
			fpc = -fpc
		}
		child.board[to] = fpc
		child.Key ^= pieceKey(m.To(), fpc)
		if m.MovingPiece() == King {
			child.kings[side] = int8(to)
		}
	}

	child.WhiteMove = !white
	child.Key ^= sideKey
	child.LastMove = m
	child.MoveNumber = p.MoveNumber + 1

	return !child.isAttacked(int(child.kings[side]), !white)
}

func (p *Position) MakeNullMove(child *Position) {
	*child = *p
	child.WhiteMove = !p.WhiteMove
	child.Key ^= sideKey
	child.LastMove = MoveEmpty
}

// IsReversible reports whether the move could allow the position to repeat:
// captures, drops and promotions change material composition for good.
func IsReversible(m Move) bool {
	return m != MoveEmpty && m.CapturedPiece() == Empty &&
		!m.IsDrop() && !m.IsPromotion()
}

var pieceFromLetter = map[byte]int{
	'P': Pawn, 'L': Lance, 'N': Knight, 'S': Silver, 'G': Gold,
	'B': Bishop, 'R': Rook, 'K': King,
}

func NewPositionFromSFEN(sfen string) (Position, error) {
	var p Position
	for i := range p.board {
		if mailboxToSquare[i] == SquareNone {
			p.board[i] = borderMark
		}
	}
	p.kings = [2]int8{-1, -1}

	var tokens = strings.Fields(sfen)
	if len(tokens) < 3 {
		return Position{}, errors.New("invalid sfen: " + sfen)
	}

	var ranks = strings.Split(tokens[0], "/")
	if len(ranks) != 9 {
		return Position{}, errors.New("invalid sfen board: " + tokens[0])
	}
	for r, row := range ranks {
		var f = 8
		var promoted = false
		for i := 0; i < len(row); i++ {
			var ch = row[i]
			if ch == '+' {
				promoted = true
				continue
			}
			if ch >= '1' && ch <= '9' {
				f -= int(ch - '0')
				continue
			}
			var white = ch >= 'a'
			var upper = ch
			if white {
				upper = ch - 'a' + 'A'
			}
			var pt, ok = pieceFromLetter[upper]
			if !ok || f < 0 {
				return Position{}, errors.New("invalid sfen board: " + tokens[0])
			}
			if promoted {
				pt = promotedPiece[pt]
				promoted = false
			}
			var sq = MakeSquare(f, r)
			var pc = int8(pt)
			if white {
				pc = -pc
			}
			p.board[mailbox(sq)] = pc
			p.Key ^= pieceKey(sq, pc)
			if pt == King {
				if white {
					p.kings[SideWhite] = int8(mailbox(sq))
				} else {
					p.kings[SideBlack] = int8(mailbox(sq))
				}
			}
			f--
		}
	}
	if p.kings[SideBlack] < 0 || p.kings[SideWhite] < 0 {
		return Position{}, errors.New("sfen position without both kings")
	}

	switch tokens[1] {
	case "b":
	case "w":
		p.WhiteMove = true
		p.Key ^= sideKey
	default:
		return Position{}, errors.New("invalid sfen side: " + tokens[1])
	}

	if tokens[2] != "-" {
		var count = 0
		for i := 0; i < len(tokens[2]); i++ {
			var ch = tokens[2][i]
			if ch >= '0' && ch <= '9' {
				count = count*10 + int(ch-'0')
				continue
			}
			var white = ch >= 'a'
			var upper = ch
			if white {
				upper = ch - 'a' + 'A'
			}
			var pt, ok = pieceFromLetter[upper]
			if !ok || pt == King {
				return Position{}, errors.New("invalid sfen hands: " + tokens[2])
			}
			if count == 0 {
				count = 1
			}
			var side = SideBlack
			if white {
				side = SideWhite
			}
			p.Hands[side][pt] = int8(count)
			p.Key ^= handKeys[side][pt][count]
			count = 0
		}
	}

	p.MoveNumber = 1
	if len(tokens) >= 4 {
		if n, err := strconv.Atoi(tokens[3]); err == nil {
			p.MoveNumber = n
		}
	}
	return p, nil
}

func (p *Position) String() string {
	var sb strings.Builder
	for r := 0; r < 9; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		var empties = 0
		for f := 8; f >= 0; f-- {
			var pc = p.board[mailbox(MakeSquare(f, r))]
			if pc == 0 {
				empties++
				continue
			}
			if empties > 0 {
				sb.WriteString(strconv.Itoa(empties))
				empties = 0
			}
			var pt = int(pc)
			var white = pc < 0
			if white {
				pt = -pt
			}
			var letter = pieceLetters[pt]
			if white {
				letter = strings.ToLower(letter)
			}
			sb.WriteString(letter)
		}
		if empties > 0 {
			sb.WriteString(strconv.Itoa(empties))
		}
	}

	if p.WhiteMove {
		sb.WriteString(" w ")
	} else {
		sb.WriteString(" b ")
	}

	var hasHand = false
	for side := SideBlack; side <= SideWhite; side++ {
		for pt := Rook; pt >= Pawn; pt-- {
			var c = int(p.Hands[side][pt])
			if c == 0 {
				continue
			}
			hasHand = true
			if c > 1 {
				sb.WriteString(strconv.Itoa(c))
			}
			var letter = pieceLetters[pt]
			if side == SideWhite {
				letter = strings.ToLower(letter)
			}
			sb.WriteString(letter)
		}
	}
	if !hasHand {
		sb.WriteByte('-')
	}

	fmt.Fprintf(&sb, " %v", p.MoveNumber)
	return sb.String()
}
