package zobrist

import (
	"lukechampine.com/frand"

	"github.com/domino14/mnk/board"
)

const bignum = 1<<63 - 2

// generate a zobrist hash for an m,n,k position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
//
// Keys are per cell and per absolute player (first or second), so they don't
// flip meaning as the side to move alternates. The side to move doesn't
// need its own key: it follows from the number of occupied cells.
type Zobrist struct {
	posTable [][2]uint64
	cells    int
}

func (z *Zobrist) Initialize(cells int) {
	z.cells = cells
	z.posTable = make([][2]uint64, cells)
	for i := 0; i < cells; i++ {
		z.posTable[i][0] = frand.Uint64n(bignum) + 1
		z.posTable[i][1] = frand.Uint64n(bignum) + 1
	}
}

func (z *Zobrist) Cells() int {
	return z.cells
}

// Hash computes the key of a position from scratch.
func (z *Zobrist) Hash(g board.GameState) uint64 {
	key := uint64(0)
	for i := 0; i < z.cells; i++ {
		owner := g.Owner(i)
		if owner == 0 {
			continue
		}
		key ^= z.posTable[i][owner-1]
	}
	return key
}

// AddMove returns the key after player (1 or 2) places a token on cell.
// Calling it a second time with the same arguments removes the token.
func (z *Zobrist) AddMove(key uint64, cell, player int) uint64 {
	return key ^ z.posTable[cell][player-1]
}
