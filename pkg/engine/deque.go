package engine

import (
	"sync"
	"sync/atomic"

	. "github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

// workItem is a batch of root moves belonging to one iteration. The batch is
// owned by whichever worker holds it; the root position snapshot inside the
// rootSearch is shared read-only.
type workItem struct {
	rs    *rootSearch
	moves []Move
}

// workDeque is a single worker's double-ended queue. The owner pushes and
// pops at the bottom for locality, thieves take from the top. The size
// counter lets thieves skip the lock when there is nothing to take.
type workDeque struct {
	mu    sync.Mutex
	items []workItem
	top   int
	size  atomic.Int32
}

func newWorkDeque() *workDeque {
	return &workDeque{}
}

func (d *workDeque) Push(item workItem) {
	d.mu.Lock()
	d.items = append(d.items, item)
	d.mu.Unlock()
	d.size.Add(1)
}

func (d *workDeque) Pop() (workItem, bool) {
	if d.size.Load() == 0 {
		return workItem{}, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.top >= len(d.items) {
		return workItem{}, false
	}
	var item = d.items[len(d.items)-1]
	d.items = d.items[:len(d.items)-1]
	d.size.Add(-1)
	d.reclaim()
	return item, true
}

func (d *workDeque) Steal() (workItem, bool) {
	if d.size.Load() == 0 {
		return workItem{}, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.top >= len(d.items) {
		return workItem{}, false
	}
	var item = d.items[d.top]
	d.top++
	d.size.Add(-1)
	d.reclaim()
	return item, true
}

func (d *workDeque) Size() int {
	return int(d.size.Load())
}

func (d *workDeque) reclaim() {
	if d.top >= len(d.items) {
		d.items = d.items[:0]
		d.top = 0
	}
}
