package usi

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hayabusa-shogi/hayabusa/pkg/engine"
	"github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

type Engine interface {
	Prepare()
	Clear()
	Search(ctx context.Context, params shogi.SearchParams) shogi.SearchInfo
}

type Protocol struct {
	name         string
	author       string
	version      string
	options      []Option
	engine       Engine
	logger       zerolog.Logger
	ponder       *bool
	positions    []shogi.Position
	thinking     bool
	engineOutput chan shogi.SearchInfo
	cancel       context.CancelFunc
}

func New(name, author, version string, eng Engine, logger zerolog.Logger, options []Option) *Protocol {
	var initPosition, err = shogi.NewPositionFromSFEN(shogi.InitialPositionSFEN)
	if err != nil {
		panic(err)
	}
	var p = &Protocol{
		name:      name,
		author:    author,
		version:   version,
		engine:    eng,
		logger:    logger,
		options:   options,
		positions: []shogi.Position{initPosition},
	}
	for _, opt := range options {
		if b, ok := opt.(*BoolOption); ok && b.Name == "USI_Ponder" {
			p.ponder = b.Value
		}
	}
	return p
}

func (p *Protocol) Run() {
	var commands = make(chan string)

	go func() {
		defer close(commands)
		readCommands(commands)
	}()

	var searchResult shogi.SearchInfo
	for {
		select {
		case si, ok := <-p.engineOutput:
			if ok {
				fmt.Println(searchInfoToUsi(si))
				searchResult = si
			} else {
				fmt.Println(p.bestMoveToUsi(searchResult))
				p.thinking = false
				p.cancel = nil
				p.engineOutput = nil
				searchResult = shogi.SearchInfo{}
			}
		case commandLine, ok := <-commands:
			if !ok {
				// quit
				if p.cancel != nil {
					p.cancel()
				}
				return
			}
			var err = p.handle(commandLine)
			if err != nil {
				p.logger.Error().Err(err).Str("command", commandLine).Msg("command failed")
			}
		}
	}
}

func readCommands(commands chan<- string) {
	var scanner = bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var commandLine = scanner.Text()
		if commandLine == "quit" {
			return
		}
		if commandLine != "" {
			commands <- commandLine
		}
	}
}

func (p *Protocol) handle(commandLine string) error {
	var fields = strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	var commandName = fields[0]
	fields = fields[1:]

	if p.thinking {
		switch commandName {
		case "stop":
			engine.RequestStopImmediate()
			return nil
		case "ponderhit":
			engine.PonderHit()
			return nil
		case "gameover":
			engine.RequestStopImmediate()
			return nil
		}
		return errors.New("search still running")
	}

	var h func(fields []string) error

	switch commandName {
	case "usi":
		h = p.usiCommand
	case "setoption":
		h = p.setOptionCommand
	case "isready":
		h = p.isReadyCommand
	case "position":
		h = p.positionCommand
	case "go":
		h = p.goCommand
	case "usinewgame":
		h = p.usiNewGameCommand
	case "gameover":
		h = p.gameOverCommand
	case "stop", "ponderhit":
		// no search running, nothing to do
		return nil
	}

	if h == nil {
		return errors.New("command not found")
	}

	return h(fields)
}

func (p *Protocol) usiCommand(fields []string) error {
	fmt.Printf("id name %s %s\n", p.name, p.version)
	fmt.Printf("id author %s\n", p.author)
	for _, option := range p.options {
		fmt.Println(option.UsiString())
	}
	fmt.Println("usiok")
	return nil
}

func (p *Protocol) setOptionCommand(fields []string) error {
	if len(fields) < 4 {
		return errors.New("invalid setoption arguments")
	}
	var name, value = fields[1], fields[3]
	for _, option := range p.options {
		if strings.EqualFold(option.UsiName(), name) {
			return option.Set(value)
		}
	}
	return errors.New("unhandled option")
}

func (p *Protocol) isReadyCommand(fields []string) error {
	p.engine.Prepare()
	fmt.Println("readyok")
	return nil
}

func (p *Protocol) positionCommand(fields []string) error {
	var args = fields
	if len(args) == 0 {
		return errors.New("empty position command")
	}
	var token = args[0]
	var sfen string
	var movesIndex = findIndexString(args, "moves")
	if token == "startpos" {
		sfen = shogi.InitialPositionSFEN
	} else if token == "sfen" {
		if movesIndex == -1 {
			sfen = strings.Join(args[1:], " ")
		} else {
			sfen = strings.Join(args[1:movesIndex], " ")
		}
	} else {
		return errors.New("unknown position command")
	}
	var pos, err = shogi.NewPositionFromSFEN(sfen)
	if err != nil {
		return err
	}
	var positions = []shogi.Position{pos}
	if movesIndex >= 0 && movesIndex+1 < len(args) {
		for _, smove := range args[movesIndex+1:] {
			var cur = positions[len(positions)-1]
			var move, err = shogi.ParseMoveUSI(&cur, smove)
			if err != nil {
				return err
			}
			var child shogi.Position
			if !cur.MakeMove(move, &child) {
				return errors.New("illegal move " + smove)
			}
			positions = append(positions, child)
		}
	}
	p.positions = positions
	return nil
}

func (p *Protocol) goCommand(fields []string) error {
	var limits = parseLimits(fields)
	var ctx, cancel = context.WithCancel(context.Background())
	p.cancel = cancel
	p.thinking = true
	p.engineOutput = make(chan shogi.SearchInfo, 3)
	go func() {
		defer cancel()
		var searchResult = p.engine.Search(ctx, shogi.SearchParams{
			Positions: p.positions,
			Limits:    limits,
			Progress: func(si shogi.SearchInfo) {
				select {
				case p.engineOutput <- si:
				default:
				}
			},
		})
		p.engineOutput <- searchResult
		close(p.engineOutput)
	}()
	return nil
}

func (p *Protocol) usiNewGameCommand(fields []string) error {
	p.engine.Clear()
	return nil
}

func (p *Protocol) gameOverCommand(fields []string) error {
	return nil
}

func searchInfoToUsi(si shogi.SearchInfo) string {
	var sb = &strings.Builder{}
	fmt.Fprintf(sb, "info depth %v", si.Depth)
	if si.Score.Mate != 0 {
		fmt.Fprintf(sb, " score mate %v", si.Score.Mate)
	} else {
		fmt.Fprintf(sb, " score cp %v", si.Score.Centipawns)
	}
	var timeMs = si.Time.Milliseconds()
	var nps = si.Nodes * 1000 / (timeMs + 1)
	fmt.Fprintf(sb, " nodes %v time %v nps %v hashfull %v",
		si.Nodes, timeMs, nps, si.Hashfull)
	if len(si.MainLine) != 0 {
		fmt.Fprintf(sb, " pv")
		for _, move := range si.MainLine {
			sb.WriteString(" ")
			sb.WriteString(move.String())
		}
	}
	return sb.String()
}

func (p *Protocol) bestMoveToUsi(si shogi.SearchInfo) string {
	if si.Resign || len(si.MainLine) == 0 {
		return "bestmove resign"
	}
	if p.ponder != nil && *p.ponder && len(si.MainLine) >= 2 {
		return fmt.Sprintf("bestmove %v ponder %v", si.MainLine[0], si.MainLine[1])
	}
	return fmt.Sprintf("bestmove %v", si.MainLine[0])
}

func parseLimits(args []string) (result shogi.LimitsType) {
	// a token with a missing value is ignored rather than crashing the loop
	var intArg = func(i int) int {
		if i+1 >= len(args) {
			return 0
		}
		var v, _ = strconv.Atoi(args[i+1])
		return v
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "ponder":
			result.Ponder = true
		case "btime":
			result.BlackTime = intArg(i)
			i++
		case "wtime":
			result.WhiteTime = intArg(i)
			i++
		case "binc":
			result.BlackInc = intArg(i)
			i++
		case "winc":
			result.WhiteInc = intArg(i)
			i++
		case "byoyomi":
			result.ByoyomiTime = intArg(i)
			i++
		case "periods":
			result.ByoyomiPeriods = intArg(i)
			i++
		case "movestogo":
			result.MovesToGo = intArg(i)
			i++
		case "depth":
			result.Depth = intArg(i)
			i++
		case "nodes":
			result.Nodes = intArg(i)
			i++
		case "movetime":
			result.MoveTime = intArg(i)
			i++
		case "infinite":
			result.Infinite = true
		}
	}
	return
}

func findIndexString(slice []string, value string) int {
	for p, v := range slice {
		if v == value {
			return p
		}
	}
	return -1
}
