package solver

import (
	"github.com/domino14/mnk/board"
)

// negamax returns the value of g for the player on turn, searched within the
// window [α, β]. A result at or below α is an upper bound on the true value
// and a result at or above β is a lower bound.
//
// nodeKey is the zobrist key of g. It is only kept up to date while the
// transposition table is on.
func (s *Solver) negamax(g board.GameState, nodeKey uint64, α, β int) int {
	s.nodes.Add(1)
	cells := s.shape.Cells()
	moves := g.MoveCount()
	if moves == cells {
		return 0
	}
	// A win on this move beats anything else we could do.
	for _, c := range s.order {
		if g.IsWinningMove(c) {
			return (cells - moves + 1) / 2
		}
	}
	// We can't win now, so at best we win with our next move.
	if upper := (cells - moves - 1) / 2; β > upper {
		β = upper
		if α >= β {
			return β
		}
	}

	alphaOrig := α
	if s.transpositionTableOptim {
		if e, ok := s.ttable.lookup(nodeKey, g.Occupied(), g.CurrentStones()); ok {
			score := int(e.score)
			switch e.flag {
			case TTExact:
				return score
			case TTLower:
				α = max(α, score)
			case TTUpper:
				β = min(β, score)
			}
			if α >= β {
				return score
			}
		}
	}

	onTurn := g.PlayerOnTurn()
	for _, c := range s.order {
		if !g.IsValidMove(c) {
			continue
		}
		childKey := nodeKey
		if s.transpositionTableOptim {
			childKey = s.zobrist.AddMove(nodeKey, c, onTurn)
		}
		score := -s.negamax(g.Play(c), childKey, -β, -α)
		if score >= β {
			s.storeBound(g, nodeKey, score, TTLower)
			return score
		}
		if score > α {
			α = score
		}
	}
	if α <= alphaOrig {
		s.storeBound(g, nodeKey, α, TTUpper)
	} else {
		s.storeBound(g, nodeKey, α, TTExact)
	}
	return α
}

func (s *Solver) storeBound(g board.GameState, nodeKey uint64, score int, flag uint8) {
	if !s.transpositionTableOptim {
		return
	}
	s.ttable.store(nodeKey, TableEntry{
		occupied: g.Occupied(),
		current:  g.CurrentStones(),
		score:    int8(score),
		flag:     flag,
	})
}
