package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	. "github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

type Evaluator interface {
	Evaluate(p *Position) int
}

type Engine struct {
	Options     Options
	evaluator   Evaluator
	logger      zerolog.Logger
	transTable  *transTable
	timeManager *timeManager
	threads     []thread
	historyKeys map[uint64]int
	progress    func(SearchInfo)
	start       time.Time

	mu       sync.Mutex
	mainLine mainLine
}

type mainLine struct {
	moves []Move
	score int
	depth int
}

type thread struct {
	engine *Engine
	id     int
	nodes  atomic.Int64
	stack  [stackSize]struct {
		position       Position
		moveList       [MaxMoves]OrderedMove
		quietsSearched [MaxMoves]Move
		pv             pv
		staticEval     int
		killer1        Move
		killer2        Move
	}
	mainHistory         [mainHistorySize]int16
	continuationHistory [][]int16
}

type pv struct {
	items [stackSize]Move
	size  int
}

func (pv *pv) clear() {
	pv.size = 0
}

func (pv *pv) assign(m Move, child *pv) {
	pv.items[0] = m
	copy(pv.items[1:], child.items[:child.size])
	pv.size = 1 + child.size
}

func (pv *pv) toSlice() []Move {
	var result = make([]Move, pv.size)
	copy(result, pv.items[:pv.size])
	return result
}

func NewEngine(evaluator Evaluator, logger zerolog.Logger) *Engine {
	return &Engine{
		Options:   NewDefaultOptions(),
		evaluator: evaluator,
		logger:    logger,
	}
}

// Prepare allocates the transposition table and per-thread state for the
// current option values.
func (e *Engine) Prepare() {
	if e.transTable == nil ||
		e.transTable.Megabytes() != e.Options.Hash ||
		e.transTable.clusterSize != e.Options.BucketSize {
		e.transTable = newTransTable(e.Options.Hash, e.Options.BucketSize)
	}
	if len(e.threads) != e.Options.Threads {
		e.threads = make([]thread, e.Options.Threads)
		for i := range e.threads {
			var t = &e.threads[i]
			t.engine = e
			t.id = i
			t.continuationHistory = make([][]int16, contHistorySize)
			for j := range t.continuationHistory {
				t.continuationHistory[j] = make([]int16, contHistorySize)
			}
		}
	}
}

// Clear drops all session-scoped state: table and history heuristics.
func (e *Engine) Clear() {
	e.Prepare()
	e.transTable.Clear()
	for i := range e.threads {
		e.threads[i].clearHistory()
	}
}

func (e *Engine) nodes() int64 {
	var result int64
	for i := range e.threads {
		result += e.threads[i].nodes.Load()
	}
	return result
}

func (e *Engine) currentSearchInfo() SearchInfo {
	e.mu.Lock()
	var ml = e.mainLine
	e.mu.Unlock()
	return SearchInfo{
		Depth:    ml.depth,
		Score:    newUsiScore(ml.score),
		Nodes:    e.nodes(),
		Time:     time.Since(e.start),
		MainLine: ml.moves,
		Hashfull: e.transTable.Hashfull(),
	}
}

// Search runs a session to completion or interruption and always returns a
// playable answer. With no legal moves the result is a resignation, not an
// error.
func (e *Engine) Search(ctx context.Context, params SearchParams) SearchInfo {
	e.Prepare()
	e.start = time.Now()
	e.mu.Lock()
	e.mainLine = mainLine{}
	e.mu.Unlock()
	e.progress = params.Progress
	for i := range e.threads {
		e.threads[i].nodes.Store(0)
	}

	var root = &params.Positions[len(params.Positions)-1]
	e.historyKeys = getHistoryKeys(params.Positions)

	var rootMoves = e.genRootMoves(root)
	if len(rootMoves) == 0 {
		return SearchInfo{Resign: true, Time: time.Since(e.start)}
	}

	var options = e.Options
	e.timeManager = newTimeManager(ctx, e.start, timeParametersFrom(&options), params.Limits, root.SideToMove())
	defer e.timeManager.Close()

	var session = newSession(e)
	publishSession(session)
	defer clearSession(session)

	e.transTable.IncDate()

	if options.Threads <= 1 {
		e.iterate(session, root, rootMoves, nil)
	} else {
		var sched = newScheduler(options.Threads)
		session.sched = sched
		var g = new(errgroup.Group)
		for i := 1; i < options.Threads; i++ {
			var id = i
			g.Go(func() error {
				e.worker(sched, id)
				return nil
			})
		}
		e.iterate(session, root, rootMoves, sched)
		sched.close()
		g.Wait()
	}

	session.finalize(e)
	var si = e.buildResult(root, rootMoves)
	e.timeManager.FinishMove()
	return si
}

func (e *Engine) genRootMoves(root *Position) []Move {
	var t = &e.threads[0]
	var buffer = t.stack[0].moveList[:]
	var child Position
	var result []Move
	for _, om := range root.GenerateMoves(buffer) {
		if root.MakeMove(om.Move, &child) {
			result = append(result, om.Move)
		}
	}
	return result
}

// buildResult validates the PV against the root position and falls back in
// stages so a move is always produced before the deadline.
func (e *Engine) buildResult(root *Position, rootMoves []Move) SearchInfo {
	var si = e.currentSearchInfo()
	si.MainLine = e.validateMainLine(root, si.MainLine)

	if len(si.MainLine) == 0 {
		// shallow emergency search, then any legal move
		var move = e.emergencyMove(root, rootMoves)
		if move == MoveEmpty {
			move = rootMoves[0]
		}
		si.MainLine = []Move{move}
		si.Score = UsiScore{}
		si.Depth = 1
	}
	return si
}

func (e *Engine) validateMainLine(root *Position, moves []Move) []Move {
	var p = *root
	var child Position
	for i, m := range moves {
		if !p.MakeMove(m, &child) {
			e.logger.Warn().
				Int("index", i).
				Str("move", m.String()).
				Msg("discarding illegal pv suffix")
			return moves[:i]
		}
		p = child
	}
	return moves
}

// emergencyMove is a single-ply greedy pick, bounded well under the fallback
// latency budget.
func (e *Engine) emergencyMove(root *Position, rootMoves []Move) Move {
	var best = MoveEmpty
	var bestScore = -valueInfinity
	var child Position
	for _, m := range rootMoves {
		if !root.MakeMove(m, &child) {
			continue
		}
		var score = -e.evaluator.Evaluate(&child)
		if score > bestScore {
			bestScore = score
			best = m
		}
	}
	return best
}

func getHistoryKeys(positions []Position) map[uint64]int {
	var result = make(map[uint64]int)
	for i := range positions {
		result[positions[i].Key]++
	}
	return result
}

func (t *thread) isRepeat(height int) bool {
	var p = &t.stack[height].position
	if !IsReversible(p.LastMove) {
		return false
	}
	for i := height - 1; i >= 0; i-- {
		var temp = &t.stack[i].position
		if temp.Key == p.Key {
			return true
		}
		if !IsReversible(temp.LastMove) {
			return false
		}
	}
	return t.engine.historyKeys[p.Key] >= 2
}

func (t *thread) clearPV(height int) {
	t.stack[height].pv.clear()
}

func (t *thread) assignPV(height int, move Move) {
	t.stack[height].pv.assign(move, &t.stack[height+1].pv)
}

func (t *thread) updateKiller(move Move, height int) {
	if t.stack[height].killer1 != move {
		t.stack[height].killer2 = t.stack[height].killer1
		t.stack[height].killer1 = move
	}
}

func (t *thread) MakeMove(move Move, height int) bool {
	var pos = &t.stack[height].position
	var child = &t.stack[height+1].position
	if move == MoveEmpty {
		pos.MakeNullMove(child)
	} else {
		if !pos.MakeMove(move, child) {
			return false
		}
	}
	t.incNodes()
	return true
}

func (t *thread) incNodes() {
	var nodes = t.nodes.Add(1)
	if nodes&255 == 0 {
		var e = t.engine
		if t.id == 0 {
			e.timeManager.OnNodesChanged(e.nodes())
		}
		if e.timeManager.IsDone() {
			panic(errSearchTimeout)
		}
	}
}

func (t *thread) initMoveIterator(height int, transMove Move) *moveIterator {
	var mi = &moveIterator{
		position:  &t.stack[height].position,
		buffer:    t.stack[height].moveList[:],
		history:   t.getHistoryContext(height),
		transMove: transMove,
		killer1:   t.stack[height].killer1,
		killer2:   t.stack[height].killer2,
	}
	mi.Init()
	return mi
}
