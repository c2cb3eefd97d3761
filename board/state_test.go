package board

import (
	"errors"
	"math/bits"
	"testing"

	"github.com/matryer/is"
)

func mustShape(t *testing.T, w, h, k int) Shape {
	t.Helper()
	s, err := NewShape(w, h, k)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewShape(t *testing.T) {
	is := is.New(t)
	type testcase struct {
		w, h, k int
		valid   bool
	}
	cases := []testcase{
		{3, 3, 3, true},
		{4, 3, 3, true},
		{1, 1, 1, true},
		{8, 8, 5, true},
		{3, 3, 4, false},
		{4, 3, 4, false},
		{0, 3, 1, false},
		{3, -1, 1, false},
		{3, 3, 0, false},
		{9, 8, 3, false},
	}
	for _, tc := range cases {
		_, err := NewShape(tc.w, tc.h, tc.k)
		if tc.valid {
			is.NoErr(err)
		} else {
			is.True(errors.Is(err, ErrInvalidShape))
		}
	}
}

func TestIndexAndRowCol(t *testing.T) {
	is := is.New(t)
	s := mustShape(t, 4, 3, 3)
	idx, err := s.Index(2, 1)
	is.NoErr(err)
	is.Equal(idx, 9)
	r, c := s.RowCol(9)
	is.Equal(r, 2)
	is.Equal(c, 1)

	_, err = s.Index(3, 0)
	is.True(errors.Is(err, ErrInvalidMove))
	_, err = s.Index(0, 4)
	is.True(errors.Is(err, ErrInvalidMove))
}

func TestIsValidMove(t *testing.T) {
	is := is.New(t)
	g := NewGameState(mustShape(t, 3, 3, 3))
	is.True(g.IsValidMove(0))
	is.True(g.IsValidMove(8))
	is.True(!g.IsValidMove(-1))
	is.True(!g.IsValidMove(9))
	g = g.Play(4)
	is.True(!g.IsValidMove(4))
}

func TestPlayKeepsInvariants(t *testing.T) {
	is := is.New(t)
	g := NewGameState(mustShape(t, 3, 3, 3))
	for i, c := range []int{4, 0, 8, 2, 6, 7} {
		before := g
		g = g.Play(c)
		is.Equal(g.MoveCount(), i+1)
		is.Equal(bits.OnesCount64(g.Occupied()), g.MoveCount())
		is.Equal(g.CurrentStones()&^g.Occupied(), uint64(0))
		// The player who just moved is now the opponent.
		is.Equal(g.OpponentStones(), before.CurrentStones()|1<<c)
		// The receiver is untouched.
		is.Equal(before.MoveCount(), i)
	}
}

func TestOwner(t *testing.T) {
	is := is.New(t)
	g := NewGameState(mustShape(t, 3, 3, 3))
	g = g.Play(4).Play(0).Play(8)
	is.Equal(g.Owner(4), 1)
	is.Equal(g.Owner(8), 1)
	is.Equal(g.Owner(0), 2)
	is.Equal(g.Owner(1), 0)
	is.Equal(g.PlayerOnTurn(), 2)
}

func TestFromBitboards(t *testing.T) {
	is := is.New(t)
	s := mustShape(t, 3, 3, 3)
	played := NewGameState(s).Play(4).Play(0).Play(8)

	g, err := FromBitboards(s, played.Occupied(), played.CurrentStones(), 3)
	is.NoErr(err)
	is.Equal(g, played)

	_, err = FromBitboards(s, 0b1, 0b10, 1)
	is.True(errors.Is(err, ErrInvalidState))
	_, err = FromBitboards(s, 0b11, 0b1, 3)
	is.True(errors.Is(err, ErrInvalidState))
	_, err = FromBitboards(s, 1<<9, 0, 1)
	is.True(errors.Is(err, ErrInvalidState))
	// first player on turn but holding two stones to the opponent's one.
	_, err = FromBitboards(s, 0b111, 0b011, 3)
	is.True(errors.Is(err, ErrInvalidState))
}

func TestFromBitboardsFinishedGame(t *testing.T) {
	is := is.New(t)
	s := mustShape(t, 3, 3, 3)

	// X: 0, 1, 2 ; O: 3, 4 with O on turn.
	_, err := FromBitboards(s, 0b11111, 0b11000, 5)
	is.True(errors.Is(err, ErrInvalidState))
	// X: 0, 1, 7 ; O: 3, 4, 5 with X on turn.
	_, err = FromBitboards(s, 0b10111011, 0b10000011, 6)
	is.True(errors.Is(err, ErrInvalidState))
	// X: 2, 4 ; O: 6, 8 along the anti-diagonal and bottom row.
	_, err = FromBitboards(s, 1<<2|1<<4|1<<6|1<<8, 1<<2|1<<4, 4)
	is.NoErr(err)
	// the same diagonal completed by X.
	_, err = FromBitboards(s, 1<<2|1<<4|1<<6|1<<0|1<<1, 1<<0|1<<1, 5)
	is.True(errors.Is(err, ErrInvalidState))

	// a drawn full board: X 0 2 3 7 8, O 1 4 5 6, O on turn.
	g, err := FromBitboards(s, 0b111111111, 1<<1|1<<4|1<<5|1<<6, 9)
	is.NoErr(err)
	is.True(g.Full())

	// with k=1 any stone is a line.
	_, err = FromBitboards(mustShape(t, 2, 1, 1), 0b1, 0, 1)
	is.True(errors.Is(err, ErrInvalidState))
}

func TestPlaySequence(t *testing.T) {
	is := is.New(t)
	s := mustShape(t, 3, 3, 3)
	g := NewGameState(s)

	// X: 0, 1 ; O: 3, 4 ; X would win on 2.
	after, n, err := g.PlaySequence([]int{0, 3, 1, 4, 2, 5})
	is.NoErr(err)
	is.Equal(n, 4)
	is.Equal(after.MoveCount(), 4)

	_, n, err = g.PlaySequence([]int{0, 0})
	is.True(errors.Is(err, ErrInvalidMove))
	is.Equal(n, 1)
}

func TestPlayInvalidPanics(t *testing.T) {
	g := NewGameState(mustShape(t, 3, 3, 3)).Play(0)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	g.Play(0)
}

func TestFingerprint(t *testing.T) {
	is := is.New(t)
	s := mustShape(t, 3, 3, 3)
	a := NewGameState(s).Play(0).Play(4).Play(8)
	b := NewGameState(s).Play(8).Play(4).Play(0)
	c := NewGameState(s).Play(0).Play(8).Play(4)
	is.Equal(a.Fingerprint(), b.Fingerprint())
	is.True(a.Fingerprint() != c.Fingerprint())

	other := NewGameState(mustShape(t, 4, 3, 3))
	is.True(other.Fingerprint() != NewGameState(s).Fingerprint())
}

func TestToDisplayText(t *testing.T) {
	is := is.New(t)
	g := NewGameState(mustShape(t, 3, 2, 2)).Play(0).Play(5)
	is.Equal(g.ToDisplayText([2]string{"X", "O"}),
		"  X  .  .\n  .  .  O\n")
}
