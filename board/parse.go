package board

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseMove reads a move written either as "row,col" or as a bare cell
// index. It only checks that the cell is on the board, not that it is empty.
func ParseMove(shape Shape, s string) (int, error) {
	s = strings.TrimSpace(s)
	if rowStr, colStr, found := strings.Cut(s, ","); found {
		row, err := strconv.Atoi(strings.TrimSpace(rowStr))
		if err != nil {
			return 0, fmt.Errorf("%w: bad row in %q", ErrInvalidMove, s)
		}
		col, err := strconv.Atoi(strings.TrimSpace(colStr))
		if err != nil {
			return 0, fmt.Errorf("%w: bad column in %q", ErrInvalidMove, s)
		}
		return shape.Index(row, col)
	}
	cell, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is neither row,col nor a cell number", ErrInvalidMove, s)
	}
	if !shape.InBounds(cell) {
		return 0, fmt.Errorf("%w: cell %d is off the %s board", ErrInvalidMove, cell, shape)
	}
	return cell, nil
}

// ParseMoves parses a list of moves with ParseMove.
func ParseMoves(shape Shape, moves []string) ([]int, error) {
	cells := make([]int, len(moves))
	for i, m := range moves {
		c, err := ParseMove(shape, m)
		if err != nil {
			return nil, err
		}
		cells[i] = c
	}
	return cells, nil
}

// MoveString formats a cell as "row,col".
func (s Shape) MoveString(cell int) string {
	row, col := s.RowCol(cell)
	return fmt.Sprintf("%d,%d", row, col)
}
