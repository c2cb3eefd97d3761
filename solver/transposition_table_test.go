package solver

import (
	"math"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/mnk/board"
)

func TestTranspositionTableSameScores(t *testing.T) {
	is := is.New(t)
	type testcase struct {
		w, h, k int
		moves   []int
	}
	cases := []testcase{
		{3, 3, 3, nil},
		{3, 3, 3, []int{4}},
		{4, 3, 3, nil},
		{4, 4, 3, nil},
		{4, 4, 3, []int{5, 10}},
		{4, 2, 2, nil},
	}
	for _, tc := range cases {
		plain, shape := newSolver(t, tc.w, tc.h, tc.k)
		withTT, _ := newSolver(t, tc.w, tc.h, tc.k)
		withTT.SetTranspositionTableOptim(true)

		g := play(board.NewGameState(shape), tc.moves...)
		want, err := plain.ScoreEach(g)
		is.NoErr(err)
		got, err := withTT.ScoreEach(g)
		is.NoErr(err)
		is.Equal(got, want)

		v1, err := plain.Solve(g)
		is.NoErr(err)
		v2, err := withTT.Solve(g)
		is.NoErr(err)
		is.Equal(v1, v2)
	}
}

func TestTranspositionTableSavesNodes(t *testing.T) {
	is := is.New(t)
	plain, shape := newSolver(t, 4, 3, 3)
	withTT, _ := newSolver(t, 4, 3, 3)
	withTT.SetTranspositionTableOptim(true)
	g := board.NewGameState(shape)

	_, err := plain.ScoreEach(g)
	is.NoErr(err)
	_, err = withTT.ScoreEach(g)
	is.NoErr(err)
	is.True(withTT.NodeCount() < plain.NodeCount())
	st := withTT.TTStats()
	is.True(st.Hits > 0)
	is.True(st.Created > 0)
}

func TestTableLookupChecksPosition(t *testing.T) {
	is := is.New(t)
	tt := &TranspositionTable{}
	tt.Reset(0, 9)
	is.Equal(tt.Size(), 1<<minTablePowerOf2)

	tt.store(7, TableEntry{occupied: 0b11, current: 0b01, score: 2, flag: TTExact})
	e, ok := tt.lookup(7, 0b11, 0b01)
	is.True(ok)
	is.Equal(e.score, int8(2))

	// same bucket, different position.
	_, ok = tt.lookup(7, 0b11, 0b10)
	is.True(!ok)
	_, ok = tt.lookup(7+uint64(tt.Size()), 0b101, 0b01)
	is.True(!ok)
	is.Equal(tt.Stats().Collisions, uint64(2))

	tt.Reset(0, 9)
	_, ok = tt.lookup(7, 0b11, 0b01)
	is.True(!ok)
}

func TestTableResetKeepsStorage(t *testing.T) {
	is := is.New(t)
	tt := &TranspositionTable{}
	tt.Reset(1, 7)
	is.Equal(tt.Size(), 1<<12)
	backing := &tt.table[0]
	tt.store(2000, TableEntry{occupied: 0b1, score: 1, flag: TTExact})

	// a smaller root shares the same array.
	tt.Reset(1, 3)
	is.Equal(tt.Size(), 1<<minTablePowerOf2)
	is.True(&tt.table[0] == backing)

	tt.Reset(1, 7)
	is.Equal(tt.Size(), 1<<12)
	is.True(&tt.table[0] == backing)
	_, ok := tt.lookup(2000, 0b1, 0)
	is.True(!ok)
}

func TestTableGenerationWraps(t *testing.T) {
	is := is.New(t)
	tt := &TranspositionTable{}
	tt.Reset(0, 9)
	tt.store(5, TableEntry{occupied: 0b1, score: 1, flag: TTExact})
	_, ok := tt.lookup(5, 0b1, 0)
	is.True(ok)

	tt.gen = math.MaxUint32
	tt.Reset(0, 9)
	is.Equal(tt.gen, uint32(1))
	_, ok = tt.lookup(5, 0b1, 0)
	is.True(!ok)
}

func TestTableSizedFromRoot(t *testing.T) {
	is := is.New(t)
	s, shape := newSolver(t, 3, 3, 3)
	s.SetTranspositionTableOptim(true)
	g := board.NewGameState(shape)

	_, err := s.Solve(g)
	is.NoErr(err)
	// ceil(9 * log2(3)) = 15
	is.Equal(s.ttable.Size(), 1<<15)
	backing := &s.ttable.table[0]

	// six empty cells only need the smallest table.
	_, err = s.ScoreEach(play(g, 4, 0, 8))
	is.NoErr(err)
	is.Equal(s.ttable.Size(), 1<<minTablePowerOf2)
	is.True(&s.ttable.table[0] == backing)
}
