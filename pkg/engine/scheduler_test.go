package engine

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

func TestWorkDequeOwnerLIFOThiefFIFO(t *testing.T) {
	var d = newWorkDeque()
	var a = workItem{moves: []Move{1}}
	var b = workItem{moves: []Move{2}}
	var c = workItem{moves: []Move{3}}
	d.Push(a)
	d.Push(b)
	d.Push(c)

	if item, ok := d.Steal(); !ok || item.moves[0] != 1 {
		t.Fatalf("thief did not take the oldest item")
	}
	if item, ok := d.Pop(); !ok || item.moves[0] != 3 {
		t.Fatalf("owner did not take the newest item")
	}
	if item, ok := d.Pop(); !ok || item.moves[0] != 2 {
		t.Fatalf("remaining item lost")
	}
	if _, ok := d.Pop(); ok {
		t.Fatalf("pop on empty deque succeeded")
	}
	if _, ok := d.Steal(); ok {
		t.Fatalf("steal on empty deque succeeded")
	}
	if d.Size() != 0 {
		t.Fatalf("size %v on empty deque", d.Size())
	}
}

func TestMakeBatchesCoversAllMoves(t *testing.T) {
	for _, n := range []int{1, 5, 8, 17, 40, 120} {
		var moves = make([]Move, n)
		for i := range moves {
			moves[i] = Move(i + 1)
		}
		var items = makeBatches(nil, moves, 4)
		var seen = make(map[Move]bool)
		for _, item := range items {
			if len(item.moves) > maxBatchSize {
				t.Fatalf("n=%v: batch of %v exceeds max", n, len(item.moves))
			}
			for _, m := range item.moves {
				if seen[m] {
					t.Fatalf("n=%v: move %v batched twice", n, m)
				}
				seen[m] = true
			}
		}
		if len(seen) != n {
			t.Fatalf("n=%v: %v moves batched", n, len(seen))
		}
	}
}

// every submitted batch must be executed exactly once no matter which tier
// delivered it
func TestSchedulerCompleteness(t *testing.T) {
	const workers = 4
	const jobs = 100

	var s = newScheduler(workers)
	var executed atomic.Int64
	var wg sync.WaitGroup
	for id := 0; id < workers; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			var misses = 0
			for !s.closed.Load() {
				if item, ok := s.getJob(id); ok {
					misses = 0
					executed.Add(int64(len(item.moves)))
					s.finishItem()
					continue
				}
				misses++
				s.rest(misses)
			}
		}(id)
	}

	var items = make([]workItem, jobs)
	for i := range items {
		items[i] = workItem{moves: []Move{Move(i + 1)}}
	}
	s.submit(items)

	for s.pending.Load() != 0 {
		runtime.Gosched()
	}
	s.close()
	wg.Wait()

	if executed.Load() != jobs {
		t.Fatalf("executed %v of %v jobs", executed.Load(), jobs)
	}
}

func TestSchedulerDrainCountsDiscards(t *testing.T) {
	var s = newScheduler(2)
	s.submit([]workItem{{moves: []Move{1}}, {moves: []Move{2}}})
	s.deques[0].Push(workItem{moves: []Move{3}})
	s.pending.Add(1)

	s.drainAll()
	if s.pending.Load() != 0 {
		t.Fatalf("pending %v after drain", s.pending.Load())
	}
	if s.discarded.Load() != 3 {
		t.Fatalf("discarded %v of 3", s.discarded.Load())
	}
}

func TestSchedulerCloseIdempotent(t *testing.T) {
	var s = newScheduler(2)
	s.close()
	s.close()
}
