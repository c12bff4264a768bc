package engine

import (
	"testing"

	. "github.com/hayabusa-shogi/hayabusa/pkg/shogi"
)

func TestTransTableKeyCheck(t *testing.T) {
	var tt = newTransTable(1, 4)
	var move = NewMove(MakeSquare(2, 6), MakeSquare(2, 5), Pawn, Empty)

	// same low bits, so same cluster; different high bits, so the key
	// check must reject
	var key1 = uint64(0x1111111100000abc)
	var key2 = uint64(0x2222222200000abc)

	tt.Update(key1, 10, 55, boundExact, move, 20)

	var _, _, _, _, _, ok = tt.Read(key2)
	if ok {
		t.Fatalf("read with mismatched key check succeeded")
	}

	depth, score, bound, gotMove, staticEval, ok := tt.Read(key1)
	if !ok {
		t.Fatalf("read with matching key failed")
	}
	if depth != 10 || score != 55 || bound != boundExact || gotMove != move || staticEval != 20 {
		t.Fatalf("read back depth=%v score=%v bound=%v move=%v eval=%v",
			depth, score, bound, gotMove, staticEval)
	}
}

func TestTransTableReplacementMonotonic(t *testing.T) {
	var tt = newTransTable(1, 4)
	var key = uint64(0x3333333300000100)

	tt.Update(key, 5, 100, boundExact, MoveEmpty, 0)
	tt.Update(key, 3, -100, boundExact, MoveEmpty, 0)

	var depth, score, _, _, _, ok = tt.Read(key)
	if !ok || depth != 5 || score != 100 {
		t.Fatalf("shallower same-age write replaced a deeper entry: depth=%v score=%v", depth, score)
	}

	tt.Update(key, 7, 200, boundExact, MoveEmpty, 0)
	depth, score, _, _, _, ok = tt.Read(key)
	if !ok || depth != 7 || score != 200 {
		t.Fatalf("deeper write not retrievable: depth=%v score=%v", depth, score)
	}
}

// a shallow write into a full cluster of deeper same-age entries must be
// dropped, whatever the bounds of the occupants
func TestTransTableShallowWriteNeverEvictsDeeper(t *testing.T) {
	var tt = newTransTable(1, 4)

	var keys [4]uint64
	for i := range keys {
		keys[i] = uint64(0x1000+i)<<32 | 0x200
		tt.Update(keys[i], 20, 50+i, boundLower, MoveEmpty, 0)
	}
	// fifth key, same cluster, much shallower
	var intruder = uint64(0x9999)<<32 | 0x200
	tt.Update(intruder, 1, -5, boundExact, MoveEmpty, 0)

	for i, key := range keys {
		var depth, _, _, _, _, ok = tt.Read(key)
		if !ok || depth != 20 {
			t.Fatalf("deep same-age entry %v evicted by a shallow write (depth=%v ok=%v)", i, depth, ok)
		}
	}
	if _, _, _, _, _, ok := tt.Read(intruder); ok {
		t.Fatalf("shallow write was stored despite a full cluster of deeper entries")
	}

	// a deeper intruder does evict the worst slot
	tt.Update(intruder, 30, -5, boundExact, MoveEmpty, 0)
	if depth, _, _, _, _, ok := tt.Read(intruder); !ok || depth != 30 {
		t.Fatalf("deeper write into a full cluster not stored")
	}
}

func TestTransTableNewGenerationReplaces(t *testing.T) {
	var tt = newTransTable(1, 4)
	var key = uint64(0x4444444400000200)

	tt.Update(key, 12, 30, boundExact, MoveEmpty, 0)
	tt.IncDate()
	tt.Update(key, 2, -30, boundLower, MoveEmpty, 0)

	var depth, score, _, _, _, ok = tt.Read(key)
	if !ok || depth != 2 || score != -30 {
		t.Fatalf("stale-generation entry blocked a fresh write: depth=%v score=%v", depth, score)
	}
}

func TestTransTableStoresStaticEval(t *testing.T) {
	var tt = newTransTable(1, 4)
	var key = uint64(0x5555555500000300)

	tt.Update(key, 6, 120, boundLower, MoveEmpty, -340)
	var _, _, _, _, staticEval, ok = tt.Read(key)
	if !ok || staticEval != -340 {
		t.Fatalf("static eval not round-tripped: eval=%v ok=%v", staticEval, ok)
	}
}

func TestTransTableClusterSize(t *testing.T) {
	for _, size := range []int{4, 8, 16} {
		var tt = newTransTable(1, size)
		if tt.clusterSize != size {
			t.Fatalf("cluster size %v not honored", size)
		}
	}
	if tt := newTransTable(1, 7); tt.clusterSize != 4 {
		t.Fatalf("invalid cluster size not defaulted")
	}
}

func TestTransTableHashfull(t *testing.T) {
	var tt = newTransTable(1, 4)
	if tt.Hashfull() != 0 {
		t.Fatalf("empty table reports nonzero hashfull")
	}
	for i := 0; i < 4096; i++ {
		var key = uint64(i)<<32 | uint64(i)
		tt.Update(key, 1, 0, boundExact, MoveEmpty, 0)
	}
	if tt.Hashfull() == 0 {
		t.Fatalf("filled table reports zero hashfull")
	}
}
