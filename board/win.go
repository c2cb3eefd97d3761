package board

// IsWinningMove returns true if the player on turn would complete a line of
// K tokens by playing on cell. Only lines through cell are checked, which is
// enough because no reachable position holds a finished line. Rows and
// columns are checked with shifted bit masks; diagonals are checked by
// walking cell indices, because their stride is not uniform across row
// boundaries.
func (g GameState) IsWinningMove(cell int) bool {
	if !g.IsValidMove(cell) {
		return false
	}
	stones := g.current | uint64(1)<<cell
	row, col := g.shape.RowCol(cell)
	return g.shape.rowWin(stones, row, col) ||
		g.shape.colWin(stones, row, col) ||
		g.shape.diagWin(stones, row, col, 1) ||
		g.shape.diagWin(stones, row, col, -1)
}

// hasLine reports whether stones hold K in a row anywhere on the board.
func (s Shape) hasLine(stones uint64) bool {
	for cell := 0; cell < s.Cells(); cell++ {
		if stones&(uint64(1)<<cell) == 0 {
			continue
		}
		row, col := s.RowCol(cell)
		if s.rowWin(stones, row, col) ||
			s.colWin(stones, row, col) ||
			s.diagWin(stones, row, col, 1) ||
			s.diagWin(stones, row, col, -1) {
			return true
		}
	}
	return false
}

// rowWin tests every K-wide window of the row that contains col.
func (s Shape) rowWin(stones uint64, row, col int) bool {
	mask := uint64(1)<<s.K - 1
	rowStart := row * s.Width
	first := max(0, col-s.K+1)
	last := min(col, s.Width-s.K)
	for shift := first; shift <= last; shift++ {
		if (stones>>(rowStart+shift))&mask == mask {
			return true
		}
	}
	return false
}

// colWin tests every K-high window of the column that contains row. The
// mask has its bits spaced Width apart.
func (s Shape) colWin(stones uint64, row, col int) bool {
	var mask uint64
	for i := 0; i < s.K; i++ {
		mask |= uint64(1) << (i * s.Width)
	}
	first := max(0, row-s.K+1)
	last := min(row, s.Height-s.K)
	for r := first; r <= last; r++ {
		if (stones>>(r*s.Width+col))&mask == mask {
			return true
		}
	}
	return false
}

// diagWin walks the 2K-1 candidate cells centred on (row, col) along a
// diagonal. dir 1 is the down-right diagonal and -1 the up-right one.
// Candidates off the board are dropped, never counted.
func (s Shape) diagWin(stones uint64, row, col, dir int) bool {
	run := 0
	for d := -(s.K - 1); d <= s.K-1; d++ {
		r, c := row+d*dir, col+d
		if r < 0 || r >= s.Height || c < 0 || c >= s.Width {
			continue
		}
		if stones&(uint64(1)<<(r*s.Width+c)) == 0 {
			run = 0
			continue
		}
		run++
		if run == s.K {
			return true
		}
	}
	return false
}
