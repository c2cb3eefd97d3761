package solver

import (
	"math"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

const (
	TTExact = 0x01
	TTLower = 0x02
	TTUpper = 0x03
)

// 24 bytes with padding; gen fits in the padding after flag.
const entrySize = 24

const (
	minTablePowerOf2 = 10
	maxTablePowerOf2 = 22
)

// TableEntry keeps the full (occupied, current) pair of the position it was
// stored for. The zobrist key only picks the bucket, so two positions that
// share a bucket are never confused with each other.
type TableEntry struct {
	occupied uint64
	current  uint64
	score    int8
	flag     uint8
	// gen is the table generation the entry was stored in.
	gen uint32
}

// TranspositionTable is owned by a single Solver and is not safe for
// concurrent use.
type TranspositionTable struct {
	table        []TableEntry
	created      uint64
	lookups      uint64
	hits         uint64
	sizePowerOf2 int
	sizeMask     uint64
	// Entries from an older generation count as empty, so Reset does not
	// have to clear the table.
	gen uint32
	// Different positions that landed in the same bucket.
	collisions uint64
}

func (t *TranspositionTable) lookup(zval, occupied, current uint64) (TableEntry, bool) {
	t.lookups++
	idx := zval & t.sizeMask
	e := t.table[idx]
	// a table flag is 1, 2, or 3.
	if e.flag == 0 || e.gen != t.gen {
		return TableEntry{}, false
	}
	if e.occupied != occupied || e.current != current {
		t.collisions++
		return TableEntry{}, false
	}
	t.hits++
	return e, true
}

func (t *TranspositionTable) store(zval uint64, tentry TableEntry) {
	idx := zval & t.sizeMask
	// just overwrite whatever is there.
	tentry.gen = t.gen
	t.table[idx] = tentry
	t.created++
}

// Reset sizes the table to a fraction of system memory and empties it.
// cells is the number of empty cells of the root position; the table never
// grows past what a search from that root could fill. The backing array is
// reused whenever it is big enough, and emptying it only bumps the
// generation.
func (t *TranspositionTable) Reset(fractionOfMemory float64, cells int) {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	// find biggest power of 2 lower than desired.
	t.sizePowerOf2 = int(math.Log2(max(desiredNElems, 1)))
	// there are fewer than 3^cells positions.
	if limit := int(math.Ceil(float64(cells) * math.Log2(3))); t.sizePowerOf2 > limit {
		t.sizePowerOf2 = limit
	}
	t.sizePowerOf2 = min(max(t.sizePowerOf2, minTablePowerOf2), maxTablePowerOf2)

	numElems := 1 << t.sizePowerOf2
	t.sizeMask = uint64(numElems - 1)
	reused := cap(t.table) >= numElems
	if reused {
		t.table = t.table[:numElems]
		t.gen++
		if t.gen == 0 {
			// wrapped; stale entries could match again.
			clear(t.table[:cap(t.table)])
			t.gen = 1
		}
	} else {
		t.table = make([]TableEntry, numElems)
		t.gen = 1
	}

	log.Debug().Int("num-elems", numElems).
		Float64("desired-num-elems", desiredNElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Bool("reused", reused).
		Uint32("generation", t.gen).
		Msg("transposition-table-size")

	t.created = 0
	t.lookups = 0
	t.hits = 0
	t.collisions = 0
}

// Size is the number of buckets in the table.
func (t *TranspositionTable) Size() int {
	return len(t.table)
}

// TTStats are the transposition table counters since the last reset.
type TTStats struct {
	Created    uint64
	Lookups    uint64
	Hits       uint64
	Collisions uint64
}

func (t *TranspositionTable) Stats() TTStats {
	return TTStats{
		Created:    t.created,
		Lookups:    t.lookups,
		Hits:       t.hits,
		Collisions: t.collisions,
	}
}
