package engine

import (
	"runtime"
	"sync/atomic"
	"time"

	"lukechampine.com/frand"

	. "github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

const (
	minBatchSize = 8
	maxBatchSize = 16
)

// scheduler feeds root-move batches to workers through three tiers: the
// worker's own deque, randomized steals from peers, and a global injector.
type scheduler struct {
	deques    []*workDeque
	injector  chan workItem
	pending   atomic.Int32
	closed    atomic.Bool
	notify    chan struct{}
	discarded atomic.Int64
}

func newScheduler(threads int) *scheduler {
	var s = &scheduler{
		deques:   make([]*workDeque, threads),
		injector: make(chan workItem, 128),
		notify:   make(chan struct{}, 1),
	}
	for i := range s.deques {
		s.deques[i] = newWorkDeque()
	}
	return s
}

func (s *scheduler) submit(items []workItem) {
	s.pending.Add(int32(len(items)))
	for _, item := range items {
		s.injector <- item
	}
}

func (s *scheduler) finishItem() {
	if s.pending.Add(-1) == 0 {
		select {
		case s.notify <- struct{}{}:
		default:
		}
	}
}

// getJob: own deque first, then a few randomized steal attempts, then the
// injector. A hit on the injector grabs a second batch for the local deque.
func (s *scheduler) getJob(id int) (workItem, bool) {
	if item, ok := s.deques[id].Pop(); ok {
		return item, true
	}
	if n := len(s.deques); n > 1 {
		for try := 0; try < 4; try++ {
			var victim = frand.Intn(n)
			if victim == id {
				continue
			}
			if item, ok := s.deques[victim].Steal(); ok {
				return item, true
			}
		}
	}
	select {
	case item, ok := <-s.injector:
		if !ok {
			return workItem{}, false
		}
		select {
		case extra, ok2 := <-s.injector:
			if ok2 {
				s.deques[id].Push(extra)
			}
		default:
		}
		return item, true
	default:
		return workItem{}, false
	}
}

// rest backs off an idle worker: spin, then yield, then sleep in growing
// steps.
func (s *scheduler) rest(misses int) {
	switch {
	case misses < 8:
	case misses < 16:
		runtime.Gosched()
	default:
		var d = 50 * time.Microsecond << uint(Min(misses-16, 4))
		time.Sleep(d)
	}
}

func (s *scheduler) close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.injector)
	}
}

// drainAll discards queued batches after a stop so the pending count can
// reach zero. Discards are only diagnostics.
func (s *scheduler) drainAll() {
	for {
		var got = false
		select {
		case _, ok := <-s.injector:
			if ok {
				s.discarded.Add(1)
				s.finishItem()
				got = true
			}
		default:
		}
		for _, d := range s.deques {
			if _, ok := d.Steal(); ok {
				s.discarded.Add(1)
				s.finishItem()
				got = true
			}
		}
		if !got {
			return
		}
	}
}

func makeBatches(rs *rootSearch, moves []Move, threads int) []workItem {
	var size = len(moves) / (threads * 2)
	if size < minBatchSize {
		size = minBatchSize
	}
	if size > maxBatchSize {
		size = maxBatchSize
	}
	var items []workItem
	for i := 0; i < len(moves); i += size {
		var end = Min(i+size, len(moves))
		items = append(items, workItem{rs: rs, moves: moves[i:end]})
	}
	return items
}
