// Package analyzer scores many positions at once. Each worker owns its own
// solver; positions that are the same are only searched once.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/solver"
)

var ErrNoPositions = errors.New("no positions to analyze")

var SampleYAML = []byte(`positions:
  - name: empty
    width: 3
    height: 3
    k: 3
  - name: centre-corner
    width: 3
    height: 3
    k: 3
    moves: ["1,1", "0,0"]
  - name: four-by-three
    width: 4
    height: 3
    k: 3
    moves: ["1,1"]
`)

// Position is one entry of a batch file.
type Position struct {
	Name   string   `yaml:"name"`
	Width  int      `yaml:"width"`
	Height int      `yaml:"height"`
	K      int      `yaml:"k"`
	Moves  []string `yaml:"moves"`
}

type batch struct {
	Positions []Position `yaml:"positions"`
}

// State replays the position's moves from an empty board.
func (p Position) State() (board.GameState, error) {
	shape, err := board.NewShape(p.Width, p.Height, p.K)
	if err != nil {
		return board.GameState{}, fmt.Errorf("position %q: %w", p.Name, err)
	}
	cells, err := board.ParseMoves(shape, p.Moves)
	if err != nil {
		return board.GameState{}, fmt.Errorf("position %q: %w", p.Name, err)
	}
	g, played, err := board.NewGameState(shape).PlaySequence(cells)
	if err != nil {
		return board.GameState{}, fmt.Errorf("position %q: %w", p.Name, err)
	}
	if played < len(cells) {
		return board.GameState{}, fmt.Errorf("position %q: %w: move %d (%s) ends the game",
			p.Name, board.ErrInvalidMove, played+1, p.Moves[played])
	}
	return g, nil
}

// LoadBatch reads a YAML batch of positions.
func LoadBatch(r io.Reader) ([]Position, error) {
	var b batch
	if err := yaml.NewDecoder(r).Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoPositions
		}
		return nil, err
	}
	if len(b.Positions) == 0 {
		return nil, ErrNoPositions
	}
	for i := range b.Positions {
		if b.Positions[i].Name == "" {
			b.Positions[i].Name = fmt.Sprintf("position-%d", i+1)
		}
	}
	return b.Positions, nil
}

func LoadBatchFile(path string) ([]Position, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadBatch(f)
}

// Result is the analysis of one position.
type Result struct {
	Name   string
	State  board.GameState
	Scores []solver.MoveScore
	// Value is the value of the position for the player on turn; the best
	// of the legal move scores, or 0 on a full board.
	Value    int
	Best     []int
	Nodes    uint64
	Duration time.Duration
	// Cached is true if the scores were not searched for this result: an
	// identical position earlier in the batch was, or they came from the
	// score cache.
	Cached bool
}

// ScoreCache keeps move scores between runs.
type ScoreCache interface {
	Get(ctx context.Context, g board.GameState) ([]solver.MoveScore, bool, error)
	Put(ctx context.Context, g board.GameState, scores []solver.MoveScore) error
}

type Options struct {
	Threads            int
	TranspositionTable bool
	TTableMemFraction  float64

	// Cache is optional.
	Cache ScoreCache
}

// positionKey identifies a position exactly. The move count follows from
// occupied.
type positionKey struct {
	shape    board.Shape
	occupied uint64
	current  uint64
}

func keyOf(g board.GameState) positionKey {
	return positionKey{shape: g.Shape(), occupied: g.Occupied(), current: g.CurrentStones()}
}

type job struct {
	idx   int
	state board.GameState
}

// Run analyzes every position and returns the results in input order. It
// stops early if ctx is canceled.
func Run(ctx context.Context, positions []Position, opts Options) ([]Result, error) {
	if len(positions) == 0 {
		return nil, ErrNoPositions
	}
	states := make([]board.GameState, len(positions))
	for i, p := range positions {
		g, err := p.State()
		if err != nil {
			return nil, err
		}
		states[i] = g
	}

	// first index of every distinct position.
	firstSeen := make(map[positionKey]int)
	unique := lo.Filter(lo.Range(len(states)), func(i int, _ int) bool {
		key := keyOf(states[i])
		if _, ok := firstSeen[key]; ok {
			return false
		}
		firstSeen[key] = i
		return true
	})

	threads := max(1, min(opts.Threads, len(unique)))
	log.Info().Int("positions", len(positions)).Int("distinct", len(unique)).
		Int("threads", threads).Msg("analysis-starting")

	results := make([]Result, len(positions))
	jobs := make(chan job)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for _, i := range unique {
			select {
			case jobs <- job{idx: i, state: states[i]}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for t := 0; t < threads; t++ {
		t := t
		g.Go(func() error {
			s := &solver.Solver{}
			for j := range jobs {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if s.Shape() != j.state.Shape() {
					if err := s.Init(j.state.Shape()); err != nil {
						return err
					}
					s.SetTranspositionTableOptim(opts.TranspositionTable)
					if opts.TTableMemFraction > 0 {
						s.SetTTableMemFraction(opts.TTableMemFraction)
					}
				}
				r, err := analyzeCached(gctx, s, j.state, opts.Cache)
				if err != nil {
					return err
				}
				r.Name = positions[j.idx].Name
				results[j.idx] = r
				log.Debug().Int("thread", t).Str("name", r.Name).Int("value", r.Value).
					Uint64("nodes", r.Nodes).Msg("analyzed-position")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i := range results {
		first := firstSeen[keyOf(states[i])]
		if first == i {
			continue
		}
		r := results[first]
		r.Name = positions[i].Name
		r.Cached = true
		results[i] = r
	}
	return results, nil
}

func analyzeCached(ctx context.Context, s *solver.Solver, g board.GameState, c ScoreCache) (Result, error) {
	if c == nil {
		return analyze(s, g)
	}
	scores, ok, err := c.Get(ctx, g)
	if err != nil {
		log.Warn().Err(err).Msg("score-cache-get-failed")
	} else if ok {
		r := newResult(g, scores)
		r.Cached = true
		return r, nil
	}
	r, err := analyze(s, g)
	if err != nil {
		return r, err
	}
	if err := c.Put(ctx, g, r.Scores); err != nil {
		log.Warn().Err(err).Msg("score-cache-put-failed")
	}
	return r, nil
}

func analyze(s *solver.Solver, g board.GameState) (Result, error) {
	s.ResetNodeCount()
	tstart := time.Now()
	scores, err := s.ScoreEach(g)
	if err != nil {
		return Result{}, err
	}
	r := newResult(g, scores)
	r.Nodes = s.NodeCount()
	r.Duration = time.Since(tstart)
	return r, nil
}

func newResult(g board.GameState, scores []solver.MoveScore) Result {
	r := Result{
		State:  g,
		Scores: scores,
		Best:   solver.BestMoves(scores),
	}
	if len(r.Best) > 0 {
		r.Value = scores[r.Best[0]].Score
	}
	return r
}

// Summary describes the outcome and cost of a batch. The node and time
// statistics leave cached results out.
type Summary struct {
	Positions     int
	Searched      int
	Wins          int
	Draws         int
	Losses        int
	MeanNodes     float64
	StdDevNodes   float64
	MeanSeconds   float64
	StdDevSeconds float64
}

func Summarize(results []Result) Summary {
	sm := Summary{Positions: len(results)}
	searched := lo.Reject(results, func(r Result, _ int) bool { return r.Cached })
	sm.Searched = len(searched)
	for _, r := range results {
		switch {
		case r.Value > 0:
			sm.Wins++
		case r.Value < 0:
			sm.Losses++
		default:
			sm.Draws++
		}
	}
	if len(searched) == 0 {
		return sm
	}
	nodes := lo.Map(searched, func(r Result, _ int) float64 { return float64(r.Nodes) })
	secs := lo.Map(searched, func(r Result, _ int) float64 { return r.Duration.Seconds() })
	if len(searched) == 1 {
		sm.MeanNodes, sm.MeanSeconds = nodes[0], secs[0]
		return sm
	}
	sm.MeanNodes, sm.StdDevNodes = stat.MeanStdDev(nodes, nil)
	sm.MeanSeconds, sm.StdDevSeconds = stat.MeanStdDev(secs, nil)
	return sm
}

// NodeCounts returns the node counts of the searched results, for plotting.
func NodeCounts(results []Result) []float64 {
	return lo.FilterMap(results, func(r Result, _ int) (float64, bool) {
		return float64(r.Nodes), !r.Cached
	})
}
