package solver

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/cache"
	"github.com/domino14/mnk/zobrist"
)

// thanks Wikipedia:
/*
function negamax(node, depth, α, β, color) is
    if depth = 0 or node is a terminal node then
        return color × the heuristic value of node

    childNodes := generateMoves(node)
    childNodes := orderMoves(childNodes)
    value := −∞
    foreach child in childNodes do
        value := max(value, −negamax(child, depth − 1, −β, −α, −color))
        α := max(α, value)
        if α ≥ β then
            break (* cut-off *)
    return value
(* Initial call for Player A's root node *)
negamax(rootNode, depth, −∞, +∞, 1)
**/

const DefaultTTableMemFraction = 0.05

var ErrShapeMismatch = errors.New("position shape does not match solver")

// MoveScore is the value of one cell for the player on turn. Legal is false
// for occupied cells, which have no score.
type MoveScore struct {
	Cell  int
	Score int
	Legal bool
}

// Solver searches the full game tree of positions of a single shape.
// A Solver is not safe for concurrent use; run one per goroutine.
type Solver struct {
	shape   board.Shape
	order   []int
	zobrist *zobrist.Zobrist
	ttable  *TranspositionTable

	transpositionTableOptim bool
	ttableMemFraction       float64

	nodes atomic.Uint64
}

// Init binds the solver to a board shape.
func (s *Solver) Init(shape board.Shape) error {
	if err := shape.Validate(); err != nil {
		return err
	}
	order, err := searchOrder(shape)
	if err != nil {
		return err
	}
	s.shape = shape
	s.order = order
	s.zobrist = nil
	s.ttable = &TranspositionTable{}
	s.transpositionTableOptim = false
	s.ttableMemFraction = DefaultTTableMemFraction
	s.nodes.Store(0)
	return nil
}

func (s *Solver) Shape() board.Shape {
	return s.shape
}

// SearchOrder is the order in which cells are tried. Do not modify it.
func (s *Solver) SearchOrder() []int {
	return s.order
}

func (s *Solver) SetTranspositionTableOptim(tt bool) {
	s.transpositionTableOptim = tt
}

func (s *Solver) TranspositionTableOptim() bool {
	return s.transpositionTableOptim
}

func (s *Solver) SetTTableMemFraction(f float64) {
	s.ttableMemFraction = f
}

func (s *Solver) NodeCount() uint64 {
	return s.nodes.Load()
}

func (s *Solver) ResetNodeCount() {
	s.nodes.Store(0)
}

// TTStats returns the transposition table counters of the last search.
func (s *Solver) TTStats() TTStats {
	return s.ttable.Stats()
}

func (s *Solver) zobristTable() (*zobrist.Zobrist, error) {
	key := fmt.Sprintf("zobrist:%d", s.shape.Cells())
	obj, err := cache.Load(key, func(string) (any, error) {
		z := &zobrist.Zobrist{}
		z.Initialize(s.shape.Cells())
		return z, nil
	})
	if err != nil {
		return nil, err
	}
	return obj.(*zobrist.Zobrist), nil
}

// prepare checks the position and readies the transposition table for a
// new search. It returns the zobrist key of the position.
func (s *Solver) prepare(g board.GameState) (uint64, error) {
	if s.order == nil {
		return 0, fmt.Errorf("%w: solver not initialized", ErrShapeMismatch)
	}
	if g.Shape() != s.shape {
		return 0, fmt.Errorf("%w: solver is %s, position is %s", ErrShapeMismatch, s.shape, g.Shape())
	}
	if !s.transpositionTableOptim {
		return 0, nil
	}
	if s.zobrist == nil {
		z, err := s.zobristTable()
		if err != nil {
			return 0, err
		}
		s.zobrist = z
	}
	s.ttable.Reset(s.ttableMemFraction, s.shape.Cells()-g.MoveCount())
	return s.zobrist.Hash(g), nil
}

func (s *Solver) logReturn(tstart time.Time, startNodes uint64) {
	ev := log.Info().
		Uint64("nodes", s.nodes.Load()-startNodes).
		Dur("elapsed", time.Since(tstart))
	if s.transpositionTableOptim {
		st := s.ttable.Stats()
		ev = ev.Uint64("ttable-created", st.Created).
			Uint64("ttable-lookups", st.Lookups).
			Uint64("ttable-hits", st.Hits).
			Uint64("ttable-collisions", st.Collisions)
	}
	ev.Msg("solve-returning")
}

// Solve returns the value of the position for the player on turn: 0 for a
// draw, positive if they can force a win (more positive for faster wins),
// negative if the opponent can.
func (s *Solver) Solve(g board.GameState) (int, error) {
	key, err := s.prepare(g)
	if err != nil {
		return 0, err
	}
	tstart := time.Now()
	startNodes := s.nodes.Load()
	cells := s.shape.Cells()
	v := s.negamax(g, key, -cells, cells)
	s.logReturn(tstart, startNodes)
	return v, nil
}

// ScoreEach returns a score for every cell of the board, indexed by cell.
// The score of a legal cell is the value of playing there, from the point
// of view of the player on turn.
func (s *Solver) ScoreEach(g board.GameState) ([]MoveScore, error) {
	key, err := s.prepare(g)
	if err != nil {
		return nil, err
	}
	tstart := time.Now()
	startNodes := s.nodes.Load()
	cells := s.shape.Cells()
	moves := g.MoveCount()
	onTurn := g.PlayerOnTurn()

	scores := make([]MoveScore, cells)
	for i := range scores {
		scores[i].Cell = i
	}
	for _, c := range s.order {
		if !g.IsValidMove(c) {
			continue
		}
		scores[c].Legal = true
		if g.IsWinningMove(c) {
			scores[c].Score = (cells - moves + 1) / 2
			continue
		}
		childKey := key
		if s.transpositionTableOptim {
			childKey = s.zobrist.AddMove(key, c, onTurn)
		}
		scores[c].Score = -s.negamax(g.Play(c), childKey, -cells, cells)
	}
	s.logReturn(tstart, startNodes)
	return scores, nil
}

// BestMoves returns the legal cells that share the highest score, in cell
// order.
func BestMoves(scores []MoveScore) []int {
	legal := lo.Filter(scores, func(m MoveScore, _ int) bool { return m.Legal })
	if len(legal) == 0 {
		return nil
	}
	best := lo.MaxBy(legal, func(a, b MoveScore) bool { return a.Score > b.Score })
	return lo.FilterMap(legal, func(m MoveScore, _ int) (int, bool) {
		return m.Cell, m.Score == best.Score
	})
}
