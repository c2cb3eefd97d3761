package board

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"strings"

	"github.com/cespare/xxhash"
)

// GameState is a position. It is small enough to copy freely, and none of
// its methods modify the receiver: Play returns the successor position.
//
// occupied has a bit set for every cell with a token. current has a bit set
// for every token belonging to the player whose turn it is, so the other
// player's tokens are occupied ^ current.
type GameState struct {
	shape    Shape
	occupied uint64
	current  uint64
	moves    int
}

// NewGameState returns an empty board of the given shape.
func NewGameState(shape Shape) GameState {
	return GameState{shape: shape}
}

// FromBitboards builds a position from its occupancy and side-to-move
// bitboards, for example to resume a game. Positions where either player
// already has K in a row are rejected: the game would be over.
func FromBitboards(shape Shape, occupied, current uint64, moves int) (GameState, error) {
	if err := shape.Validate(); err != nil {
		return GameState{}, err
	}
	if occupied&^shape.boardMask() != 0 {
		return GameState{}, fmt.Errorf("%w: occupied cells off the board", ErrInvalidState)
	}
	if current&^occupied != 0 {
		return GameState{}, fmt.Errorf("%w: current stones must be a subset of occupied cells",
			ErrInvalidState)
	}
	if bits.OnesCount64(occupied) != moves {
		return GameState{}, fmt.Errorf("%w: %d occupied cells but move count is %d",
			ErrInvalidState, bits.OnesCount64(occupied), moves)
	}
	// The side to move has either the same number of stones as the opponent
	// (first player on turn) or one fewer.
	mine := bits.OnesCount64(current)
	if mine != moves/2 {
		return GameState{}, fmt.Errorf("%w: player on turn has %d stones after %d moves",
			ErrInvalidState, mine, moves)
	}
	if shape.hasLine(current) || shape.hasLine(occupied^current) {
		return GameState{}, fmt.Errorf("%w: position already has %d in a row", ErrInvalidState, shape.K)
	}
	return GameState{shape: shape, occupied: occupied, current: current, moves: moves}, nil
}

func (g GameState) Shape() Shape {
	return g.shape
}

func (g GameState) Occupied() uint64 {
	return g.occupied
}

func (g GameState) CurrentStones() uint64 {
	return g.current
}

func (g GameState) OpponentStones() uint64 {
	return g.occupied ^ g.current
}

func (g GameState) MoveCount() int {
	return g.moves
}

// Full returns true if there are no empty cells left.
func (g GameState) Full() bool {
	return g.moves == g.shape.Cells()
}

// PlayerOnTurn is 1 for the first player and 2 for the second.
func (g GameState) PlayerOnTurn() int {
	return 1 + g.moves%2
}

// Owner returns 0 for an empty cell, otherwise the player (1 or 2) whose
// token is on it.
func (g GameState) Owner(cell int) int {
	bit := uint64(1) << cell
	if g.occupied&bit == 0 {
		return 0
	}
	if g.current&bit != 0 {
		return g.PlayerOnTurn()
	}
	return 3 - g.PlayerOnTurn()
}

// IsValidMove returns true if the cell is on the board and empty.
func (g GameState) IsValidMove(cell int) bool {
	return g.shape.InBounds(cell) && g.occupied&(uint64(1)<<cell) == 0
}

// Play places a token for the player on turn and returns the new position.
// The cell must be a valid move.
func (g GameState) Play(cell int) GameState {
	if !g.IsValidMove(cell) {
		panic(fmt.Sprintf("play on invalid cell %d (%s, %d moves)", cell, g.shape, g.moves))
	}
	// The opponent becomes the side to move; their stones are everything
	// except ours, before our new token goes down.
	g.current ^= g.occupied
	g.occupied |= uint64(1) << cell
	g.moves++
	return g
}

// PlaySequence plays the given cells in order. It stops before a move that
// would win the game, and returns the position reached along with the
// number of moves that were played.
func (g GameState) PlaySequence(cells []int) (GameState, int, error) {
	for i, c := range cells {
		if !g.IsValidMove(c) {
			return g, i, fmt.Errorf("%w: cell %d at position %d in sequence",
				ErrInvalidMove, c, i)
		}
		if g.IsWinningMove(c) {
			return g, i, nil
		}
		g = g.Play(c)
	}
	return g, len(cells), nil
}

// Fingerprint hashes the shape and the canonical (occupied, current)
// encoding of the position.
func (g GameState) Fingerprint() uint64 {
	var buf [19]byte
	buf[0] = byte(g.shape.Width)
	buf[1] = byte(g.shape.Height)
	buf[2] = byte(g.shape.K)
	binary.LittleEndian.PutUint64(buf[3:], g.occupied)
	binary.LittleEndian.PutUint64(buf[11:], g.current)
	return xxhash.Sum64(buf[:])
}

// ToDisplayText renders the board with one token string per player and a
// dot for empty cells.
func (g GameState) ToDisplayText(tokens [2]string) string {
	var sb strings.Builder
	for row := 0; row < g.shape.Height; row++ {
		for col := 0; col < g.shape.Width; col++ {
			tok := "."
			switch g.Owner(row*g.shape.Width + col) {
			case 1:
				tok = tokens[0]
			case 2:
				tok = tokens[1]
			}
			fmt.Fprintf(&sb, "%3s", tok)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (g GameState) String() string {
	return fmt.Sprintf("<%s moves=%d occupied=%#x current=%#x>",
		g.shape, g.moves, g.occupied, g.current)
}
