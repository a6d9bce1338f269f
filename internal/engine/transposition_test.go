package engine

import (
	"testing"

	"github.com/corvid-labs/ashbourne/internal/board"
)

// TestBucketCountPowerOfTwo pins tableBuckets to spec §8's "Bucket count is a
// power of two" law.
func TestBucketCountPowerOfTwo(t *testing.T) {
	if tableBuckets <= 0 || tableBuckets&(tableBuckets-1) != 0 {
		t.Errorf("tableBuckets = %d, not a power of two", tableBuckets)
	}
}

// TestAddGetFulfilledEntryRoundTrip checks spec §8's "Immediate get": a value
// stored with Add is returned unchanged by GetFulfilledEntry on the exact
// (key, level, depth, side) it was stored with.
func TestAddGetFulfilledEntryRoundTrip(t *testing.T) {
	tt := NewTranspositionTable(5)

	key := uint64(0xDEADBEEF)
	move := board.NewMove(board.E2, board.E4)

	tt.Add(key, 3, 7, board.WHITE, 150, TTExact, move, true)

	got, ok := tt.GetFulfilledEntry(key, 3, 7, board.WHITE)
	if !ok {
		t.Fatal("GetFulfilledEntry: not found after Add")
	}
	if got.Key != key || got.Level != 3 || got.Depth != 7 || got.Side != board.WHITE ||
		got.Score != 150 || got.Flag != TTExact || got.BestMove != move || !got.IsPV {
		t.Errorf("GetFulfilledEntry returned %+v, fields don't match what was Added", got)
	}
}

// TestGetFulfilledEntryMismatch checks spec §8's "Mismatched query": a
// differing level, depth, or side all cause GetFulfilledEntry to report
// false, even though the key and bucket match.
func TestGetFulfilledEntryMismatch(t *testing.T) {
	tt := NewTranspositionTable(5)

	key := uint64(0x1234)
	move := board.NewMove(board.D2, board.D4)
	tt.Add(key, 2, 5, board.WHITE, 10, TTExact, move, false)

	cases := []struct {
		name  string
		level int
		depth int
		side  board.Side
	}{
		{"mismatched level", 3, 5, board.WHITE},
		{"mismatched depth", 2, 6, board.WHITE},
		{"mismatched side", 2, 5, board.BLACK},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, ok := tt.GetFulfilledEntry(key, c.level, c.depth, c.side); ok {
				t.Errorf("GetFulfilledEntry(%d, %d, %v) = true, want false", c.level, c.depth, c.side)
			}
		})
	}
}

// TestGetSizePermillBounds checks spec §8's permille bound law: GetSizePermill
// always reports a value in [0, 1000], both empty and heavily loaded.
func TestGetSizePermillBounds(t *testing.T) {
	tt := NewTranspositionTable(5)

	if p := tt.GetSizePermill(); p < 0 || p > 1000 {
		t.Errorf("GetSizePermill() on empty table = %v, want in [0, 1000]", p)
	}

	move := board.NewMove(board.A2, board.A4)
	for i := 0; i < 5000; i++ {
		key := uint64(i) * 0x9E3779B97F4A7C15
		tt.Add(key, i%32, i%16, board.WHITE, i, TTExact, move, false)
	}

	if p := tt.GetSizePermill(); p < 0 || p > 1000 {
		t.Errorf("GetSizePermill() on loaded table = %v, want in [0, 1000]", p)
	}
}
