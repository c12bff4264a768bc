package engine

import (
	"math/bits"
	"sync/atomic"
	"unsafe"

	. "github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

const (
	boundLower = 1 << iota
	boundUpper
	boundExact = boundLower | boundUpper
)

// transEntry is 20 bytes. The gate serializes writers of one slot; readers
// take it too, so a multi-field record is never observed half written. The
// high 32 bits of the position hash are the key check; index bits come from
// the low half, so a key-check match on the wrong slot cannot happen by
// construction.
type transEntry struct {
	gate       int32
	key32      uint32
	moveDate   uint32
	score      int16
	staticEval int16
	depth      int8
	bound      uint8
}

const (
	moveMask = (1 << 24) - 1
	dateMask = 0xff
)

func (entry *transEntry) Move() Move {
	return Move(entry.moveDate & moveMask)
}

func (entry *transEntry) Date() uint32 {
	return entry.moveDate >> 24
}

func (entry *transEntry) setMoveAndDate(move Move, date uint32) {
	entry.moveDate = uint32(move)&moveMask | date<<24
}

type transTable struct {
	entries     []transEntry
	clusterSize int
	clusterMask uint32
	date        uint32
	megabytes   int
}

func newTransTable(megabytes, clusterSize int) *transTable {
	if clusterSize != 4 && clusterSize != 8 && clusterSize != 16 {
		clusterSize = 4
	}
	var clusters = roundPowerOfTwo(megabytes * (1 << 20) / int(unsafe.Sizeof(transEntry{})) / clusterSize)
	return &transTable{
		entries:     make([]transEntry, clusters*clusterSize),
		clusterSize: clusterSize,
		clusterMask: uint32(clusters - 1),
		megabytes:   megabytes,
	}
}

func roundPowerOfTwo(size int) int {
	if size < 1 {
		return 1
	}
	return 1 << (63 - bits.LeadingZeros64(uint64(size)))
}

func (tt *transTable) Megabytes() int {
	return tt.megabytes
}

func (tt *transTable) IncDate() {
	tt.date = (tt.date + 1) & dateMask
}

func (tt *transTable) Clear() {
	tt.date = 0
	for i := range tt.entries {
		tt.entries[i] = transEntry{}
	}
}

func (tt *transTable) cluster(key uint64) []transEntry {
	var first = int(uint32(key)&tt.clusterMask) * tt.clusterSize
	return tt.entries[first : first+tt.clusterSize]
}

func (tt *transTable) Read(key uint64) (depth, score, bound int, move Move, staticEval int, ok bool) {
	var cluster = tt.cluster(key)
	var key32 = uint32(key >> 32)
	for i := range cluster {
		var entry = &cluster[i]
		if entry.key32 != key32 {
			continue
		}
		if atomic.CompareAndSwapInt32(&entry.gate, 0, 1) {
			if entry.key32 == key32 {
				score = int(entry.score)
				move = entry.Move()
				depth = int(entry.depth)
				bound = int(entry.bound)
				staticEval = int(entry.staticEval)
				ok = bound != 0
			}
			atomic.StoreInt32(&entry.gate, 0)
		}
		if ok {
			return
		}
	}
	return
}

// Update stores under the cluster replacement policy: a matching key is only
// deepened within one generation, a miss takes an empty slot or evicts the
// lowest-priority victim. If even the worst slot outranks the incoming
// entry, the store is dropped: a shallower write never displaces a strictly
// deeper same-age entry.
func (tt *transTable) Update(key uint64, depth, score, bound int, move Move, staticEval int) {
	var cluster = tt.cluster(key)
	var key32 = uint32(key >> 32)
	var newScore = transEntryScore(depth, tt.date, uint8(bound), tt.date)

	var target *transEntry
	var sameKey = false
	var victimScore = 1 << 30
	for i := range cluster {
		var entry = &cluster[i]
		if entry.key32 == key32 {
			if entry.Date() == tt.date && depth <= int(entry.depth) {
				// a shallower write never replaces a deeper same-age entry
				return
			}
			target = entry
			sameKey = true
			break
		}
		var s = transEntryScore(int(entry.depth), entry.Date(), entry.bound, tt.date)
		if s < victimScore {
			victimScore = s
			target = entry
		}
	}
	if target == nil {
		return
	}
	if !sameKey && newScore <= victimScore {
		return
	}
	if atomic.CompareAndSwapInt32(&target.gate, 0, 1) {
		if target.key32 != key32 &&
			newScore <= transEntryScore(int(target.depth), target.Date(), target.bound, tt.date) {
			// lost a race to a better entry
			atomic.StoreInt32(&target.gate, 0)
			return
		}
		target.key32 = key32
		target.score = int16(score)
		target.staticEval = int16(staticEval)
		target.depth = int8(depth)
		target.bound = uint8(bound)
		target.setMoveAndDate(move, tt.date)
		atomic.StoreInt32(&target.gate, 0)
	}
}

// Lower is worse: empty slots first, then stale generations, then shallow
// depth; exact bounds are worth keeping a little longer.
func transEntryScore(depth int, date uint32, bound uint8, curDate uint32) int {
	if bound == 0 {
		return -(1 << 20)
	}
	var age = int((curDate - date) & dateMask)
	var s = depth - 16*age
	if bound == boundExact {
		s += 4
	}
	return s
}

// Hashfull samples the leading clusters for a per-mille estimate of current
// generation entries.
func (tt *transTable) Hashfull() int {
	var sampled, used = 0, 0
	var limit = 1000 * tt.clusterSize
	if limit > len(tt.entries) {
		limit = len(tt.entries)
	}
	for i := 0; i < limit; i++ {
		var entry = &tt.entries[i]
		sampled++
		if entry.bound != 0 && entry.Date() == tt.date {
			used++
		}
	}
	if sampled == 0 {
		return 0
	}
	return used * 1000 / sampled
}
