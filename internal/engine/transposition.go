package engine

import (
	"unsafe"

	"github.com/corvid-labs/ashbourne/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// Size bounds for the table, in bytes. The bucket count is fixed at
// tableBuckets regardless of the configured size; max_bytes instead scales
// how many entries each bucket may hold.
const (
	ttMinSizeBytes = 5 * 1024 * 1024
	ttMaxSizeBytes = 500 * 1024 * 1024

	// tableKeyMask mirrors the visible source's TABLE_KEY_MASK = 0xFFFF:
	// a fixed 65,536-bucket table, indexed by the low 16 bits of the key.
	tableKeyMask = 0xFFFF
	tableBuckets = tableKeyMask + 1
)

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key      uint64     // full Zobrist hash, for verification within a bucket
	Level    int        // search level (ply from root) this result was stored at
	Depth    int8       // remaining search depth
	Side     board.Side // side to move at the stored position
	Score    int16      // score (bounded by Flag)
	Flag     TTFlag     // type of bound
	BestMove board.Move // best move found
	IsPV     bool       // true if this entry came from a PV (exact) node
	Age      uint8      // generation this entry was last written in
}

var ttEntrySize = uint64(unsafe.Sizeof(TTEntry{}))

// bucket holds the entries that hash to one table index. It grows up to
// entriesPerBucket before Add starts evicting.
type bucket = []TTEntry

// TranspositionTable is the bounded, bucketed hash cache of search results
// shared between worker threads during one Calculate. Indexing, replacement
// and age bookkeeping follow transposition_table.h: a fixed 65,536-bucket
// table (GetTableIndex = key & tableKeyMask) whose max_bytes budget scales
// the number of entries each bucket may hold rather than the bucket count
// itself (see DESIGN.md for why that reading was chosen over the other).
type TranspositionTable struct {
	maxBytes         int
	entriesPerBucket int
	buckets          [tableBuckets]bucket
	age              uint8

	// Diagnostics only; not part of the spec contract.
	hits, probes uint64
}

// NewTranspositionTable creates a transposition table sized sizeMB megabytes,
// clamped to [ttMinSizeBytes, ttMaxSizeBytes].
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	maxBytes := sizeMB * 1024 * 1024
	if maxBytes < ttMinSizeBytes {
		maxBytes = ttMinSizeBytes
	}
	if maxBytes > ttMaxSizeBytes {
		maxBytes = ttMaxSizeBytes
	}

	entriesPerBucket := int(uint64(maxBytes) / (tableBuckets * ttEntrySize))
	if entriesPerBucket < 1 {
		entriesPerBucket = 1
	}

	return &TranspositionTable{
		maxBytes:         maxBytes,
		entriesPerBucket: entriesPerBucket,
	}
}

// tableIndex returns the bucket a key falls into.
func tableIndex(key uint64) uint64 {
	return key & tableKeyMask
}

// Add inserts or replaces an entry. If the bucket is full, the entry that
// compares "smallest" under (level asc, depth asc) is evicted, so deeper or
// higher-level results survive; ties prefer evicting the oldest generation.
func (tt *TranspositionTable) Add(key uint64, level, depth int, side board.Side, value int, flag TTFlag, bestMove board.Move, pv bool) {
	idx := tableIndex(key)
	b := tt.buckets[idx]

	next := TTEntry{
		Key:      key,
		Level:    level,
		Depth:    int8(depth),
		Side:     side,
		Score:    int16(value),
		Flag:     flag,
		BestMove: bestMove,
		IsPV:     pv,
		Age:      tt.age,
	}

	for i := range b {
		if b[i].Key == key && b[i].Level == level && b[i].Side == side {
			b[i] = next
			return
		}
	}

	if len(b) < tt.entriesPerBucket {
		tt.buckets[idx] = append(b, next)
		return
	}

	worst := 0
	for i := 1; i < len(b); i++ {
		if ttSmaller(b[i], b[worst]) {
			worst = i
		}
	}
	b[worst] = next
}

// ttSmaller reports whether a should be evicted before b: lower level first,
// then lower depth, then older generation.
func ttSmaller(a, b TTEntry) bool {
	if a.Level != b.Level {
		return a.Level < b.Level
	}
	if a.Depth != b.Depth {
		return a.Depth < b.Depth
	}
	return a.Age < b.Age
}

// GetFulfilledEntry returns the stored entry whose (key, level, depth, side)
// all match, or false if none does.
func (tt *TranspositionTable) GetFulfilledEntry(key uint64, level, depth int, side board.Side) (TTEntry, bool) {
	b := tt.buckets[tableIndex(key)]
	for _, e := range b {
		if e.Key == key && e.Level == level && int(e.Depth) == depth && e.Side == side {
			return e, true
		}
	}
	return TTEntry{}, false
}

// GrowOld marks the table as aged by one step: existing entries become lower
// priority for replacement against entries Added afterward. Called at the
// start of each Calculate.
func (tt *TranspositionTable) GrowOld() {
	tt.age++
}

// GetSizeBytes reports current occupancy in bytes (entries actually stored,
// not table capacity).
func (tt *TranspositionTable) GetSizeBytes() int {
	count := 0
	for i := range tt.buckets {
		count += len(tt.buckets[i])
	}
	return count * int(ttEntrySize)
}

// GetSizePermill reports current occupancy as parts-per-thousand of the
// configured maximum. Always within [0, 1000].
func (tt *TranspositionTable) GetSizePermill() float64 {
	permille := float64(tt.GetSizeBytes()) * 1000 / float64(tt.maxBytes)
	if permille < 0 {
		return 0
	}
	if permille > 1000 {
		return 1000
	}
	return permille
}

// Probe looks up a position by key alone, ignoring level/depth/side, and
// returns the best (deepest, most recent) matching entry. This is the
// convenience lookup the negamax worker uses; GetFulfilledEntry above is the
// strict law-abiding accessor.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes++

	b := tt.buckets[tableIndex(hash)]
	best, found := TTEntry{}, false
	for _, e := range b {
		if e.Key != hash {
			continue
		}
		if !found || e.Depth > best.Depth || (e.Depth == best.Depth && e.Age > best.Age) {
			best = e
			found = true
		}
	}
	if found {
		tt.hits++
	}
	return best, found
}

// Store is the worker-facing counterpart to Probe: it records a result
// under level 0 and board.NONE (the negamax worker does not track level or
// side through the TT, only the raw search depth and score).
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, bestMove board.Move, pv bool) {
	tt.Add(hash, 0, depth, board.NONE, score, flag, bestMove, pv)
}

// NewSearch is an alias for GrowOld kept for call-site continuity with the
// engine's per-search setup.
func (tt *TranspositionTable) NewSearch() {
	tt.GrowOld()
}

// Clear empties every bucket and resets aging and diagnostics.
func (tt *TranspositionTable) Clear() {
	for i := range tt.buckets {
		tt.buckets[i] = nil
	}
	tt.age = 0
	tt.hits = 0
	tt.probes = 0
}

// HashFull returns the permille (parts per thousand) of the table that is
// used, for the UCI "hashfull" info field.
func (tt *TranspositionTable) HashFull() int {
	return int(tt.GetSizePermill())
}

// HitRate returns the cache hit rate as a percentage, for diagnostics.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Size returns the table's configured maximum size in bytes.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(tt.maxBytes)
}

// AdjustScoreFromTT adjusts a score read from the transposition table back
// to the current ply; mate scores are distance-to-root dependent and must be
// re-based after crossing a TT boundary.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT adjusts a score for storage in the transposition table.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
