// Package board holds the bitboard representation of an m,n,k-game
// position along with move validation and win detection.
package board

import (
	"errors"
	"fmt"
)

// MaxCells is the largest board we can fit in a single bitboard.
const MaxCells = 64

var (
	ErrInvalidShape = errors.New("invalid board shape")
	ErrInvalidState = errors.New("invalid game state")
	ErrInvalidMove  = errors.New("invalid move")
)

// A Shape holds the static parameters of a game: the board is Width cells
// wide and Height cells high, and K tokens in a line are needed to win.
type Shape struct {
	Width  int
	Height int
	K      int
}

// NewShape validates the dimensions and run length and returns a Shape.
func NewShape(width, height, k int) (Shape, error) {
	s := Shape{Width: width, Height: height, K: k}
	if err := s.Validate(); err != nil {
		return Shape{}, err
	}
	return s, nil
}

// Validate returns an error if the shape can't be represented or can't be won.
func (s Shape) Validate() error {
	if s.Width < 1 || s.Height < 1 {
		return fmt.Errorf("%w: dimensions must be positive, got %dx%d",
			ErrInvalidShape, s.Width, s.Height)
	}
	if s.Width*s.Height > MaxCells {
		return fmt.Errorf("%w: %dx%d board has more than %d cells",
			ErrInvalidShape, s.Width, s.Height, MaxCells)
	}
	if s.K < 1 || s.K > min(s.Width, s.Height) {
		return fmt.Errorf("%w: k must be between 1 and %d, got %d",
			ErrInvalidShape, min(s.Width, s.Height), s.K)
	}
	return nil
}

// Cells is the number of cells on the board.
func (s Shape) Cells() int {
	return s.Width * s.Height
}

// Index converts a row and column into a row-major cell index.
func (s Shape) Index(row, col int) (int, error) {
	if row < 0 || row >= s.Height || col < 0 || col >= s.Width {
		return 0, fmt.Errorf("%w: (%d, %d) is off the %dx%d board",
			ErrInvalidMove, row, col, s.Width, s.Height)
	}
	return row*s.Width + col, nil
}

// RowCol is the inverse of Index. It does not check bounds.
func (s Shape) RowCol(cell int) (int, int) {
	return cell / s.Width, cell % s.Width
}

// InBounds returns true if the cell is on the board.
func (s Shape) InBounds(cell int) bool {
	return cell >= 0 && cell < s.Cells()
}

// MaxScore is the largest magnitude any position on this board can score.
func (s Shape) MaxScore() int {
	return (s.Cells() + 1) / 2
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d k=%d", s.Width, s.Height, s.K)
}

// boardMask has a bit set for every cell on the board.
func (s Shape) boardMask() uint64 {
	if s.Cells() == MaxCells {
		return ^uint64(0)
	}
	return (uint64(1) << s.Cells()) - 1
}
