package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/config"
	"github.com/domino14/mnk/solver"
	"github.com/domino14/mnk/store"
)

const defaultHistoryCount = 10

type Response struct {
	message string
}

type CmdOptions map[string]string

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v, ok := c[key]
	if !ok {
		return defaultI, nil
	}
	return strconv.Atoi(v)
}

func (c CmdOptions) BoolDefault(key string, defaultB bool) (bool, error) {
	v, ok := c[key]
	if !ok {
		return defaultB, nil
	}
	return strconv.ParseBool(v)
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	cur := sc.current().state.Shape()
	dims := []int{cur.Width, cur.Height, cur.K}
	switch len(cmd.args) {
	case 0:
	case 3:
		for i, a := range cmd.args {
			n, err := strconv.Atoi(a)
			if err != nil {
				return nil, fmt.Errorf("new: %q is not a number", a)
			}
			dims[i] = n
		}
	default:
		return nil, errors.New("usage: new [width height k] [-w width] [-h height] [-k k]")
	}
	for i, opt := range []string{"w", "h", "k"} {
		n, err := cmd.options.IntDefault(opt, dims[i])
		if err != nil {
			return nil, fmt.Errorf("new: -%s %q is not a number", opt, cmd.options[opt])
		}
		dims[i] = n
	}
	shape, err := board.NewShape(dims[0], dims[1], dims[2])
	if err != nil {
		return nil, err
	}
	if err := sc.startGame(shape); err != nil {
		return nil, err
	}
	log.Debug().Str("shape", shape.String()).Msg("new-game")
	return msg(sc.showText()), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: play <row,col | cell>")
	}
	cur := sc.current()
	if cur.winner != 0 || cur.state.Full() {
		return nil, errNoGame
	}
	g := cur.state
	cell, err := board.ParseMove(g.Shape(), cmd.args[0])
	if err != nil {
		return nil, err
	}
	if !g.IsValidMove(cell) {
		return nil, fmt.Errorf("%w: %s is already taken", board.ErrInvalidMove, g.Shape().MoveString(cell))
	}
	mover := g.PlayerOnTurn()
	won := g.IsWinningMove(cell)
	next := ply{state: g.Play(cell)}
	if won {
		next.winner = mover
	}
	sc.plies = append(sc.plies, next)

	var sb strings.Builder
	switch {
	case won:
		fmt.Fprintf(&sb, "Player %d wins!\n\n", mover)
		sb.WriteString(sc.boardText(next.state))
	case next.state.Full():
		sb.WriteString("Draw!\n\n")
		sb.WriteString(sc.boardText(next.state))
	case sc.autoscore:
		sb.WriteString(sc.showText())
		sb.WriteString("\n")
		text, err := sc.scoresText()
		if err != nil {
			return nil, err
		}
		sb.WriteString(text)
	default:
		sb.WriteString(sc.showText())
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if len(sc.plies) == 1 {
		return nil, errors.New("there are no moves to undo")
	}
	sc.plies = sc.plies[:len(sc.plies)-1]
	return msg(sc.showText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	return msg(sc.showText()), nil
}

// ttOption applies a -tt option for a single search. The returned func puts
// the previous setting back.
func (sc *ShellController) ttOption(cmd *shellcmd) (func(), error) {
	prev := sc.solver.TranspositionTableOptim()
	use, err := cmd.options.BoolDefault("tt", prev)
	if err != nil {
		return nil, fmt.Errorf("%s: -tt: %w", cmd.cmd, err)
	}
	sc.solver.SetTranspositionTableOptim(use)
	return func() { sc.solver.SetTranspositionTableOptim(prev) }, nil
}

func (sc *ShellController) scores(cmd *shellcmd) (*Response, error) {
	restore, err := sc.ttOption(cmd)
	if err != nil {
		return nil, err
	}
	defer restore()
	text, err := sc.scoresText()
	if err != nil {
		return nil, err
	}
	return msg(text), nil
}

// scoreCurrent runs the solver on every move of the current position. The
// result is archived if there is a store.
func (sc *ShellController) scoreCurrent() ([]solver.MoveScore, uint64, time.Duration, error) {
	cur := sc.current()
	if cur.winner != 0 {
		return nil, 0, 0, errNoGame
	}
	sc.solver.ResetNodeCount()
	tstart := time.Now()
	scores, err := sc.solver.ScoreEach(cur.state)
	if err != nil {
		return nil, 0, 0, err
	}
	elapsed := time.Since(tstart)
	nodes := sc.solver.NodeCount()
	sc.solver.ResetNodeCount()

	if sc.store != nil {
		_, err := sc.store.Save(context.Background(), store.Record{
			State: cur.state, Scores: scores, Nodes: nodes, Duration: elapsed,
		})
		if err != nil {
			log.Err(err).Msg("could-not-archive-analysis")
		}
	}
	return scores, nodes, elapsed, nil
}

func (sc *ShellController) scoresText() (string, error) {
	scores, nodes, elapsed, err := sc.scoreCurrent()
	if err != nil {
		return "", err
	}
	cur := sc.current()

	var sb strings.Builder
	sb.WriteString("Board\n")
	sb.WriteString(sc.boardText(cur.state))
	sb.WriteString("\nMove scores\n")
	sb.WriteString(scoreMatrix(cur.state.Shape(), scores))
	sb.WriteString("\n")
	sb.WriteString(solveStats(sc.printer, nodes, elapsed))
	if best := solver.BestMoves(scores); len(best) > 0 {
		moves := lo.Map(best, func(c int, _ int) string { return cur.state.Shape().MoveString(c) })
		fmt.Fprintf(&sb, "Best: %s\n", strings.Join(moves, " "))
	}
	return sb.String(), nil
}

func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	cur := sc.current()
	if cur.winner != 0 {
		return nil, errNoGame
	}
	restore, err := sc.ttOption(cmd)
	if err != nil {
		return nil, err
	}
	defer restore()
	sc.solver.ResetNodeCount()
	tstart := time.Now()
	v, err := sc.solver.Solve(cur.state)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(tstart)
	nodes := sc.solver.NodeCount()
	sc.solver.ResetNodeCount()
	return msg(valueText(cur.state, v) + "\n" + solveStats(sc.printer, nodes, elapsed)), nil
}

func (sc *ShellController) explain(cmd *shellcmd) (*Response, error) {
	return msg(scoreExplanation), nil
}

func (sc *ShellController) settingsText() string {
	var sb strings.Builder
	sb.WriteString("Settings:\n")
	fmt.Fprintf(&sb, "  tt: %v\n", sc.solver.TranspositionTableOptim())
	fmt.Fprintf(&sb, "  tokens: %s,%s\n", sc.tokens[0], sc.tokens[1])
	fmt.Fprintf(&sb, "  autoscore: %v\n", sc.autoscore)
	return sb.String()
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(sc.settingsText()), nil
	}
	if len(cmd.args) != 2 {
		return nil, errors.New("usage: set <tt|tokens|autoscore> <value>")
	}
	opt, value := cmd.args[0], cmd.args[1]
	switch opt {
	case "tt":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, err
		}
		sc.solver.SetTranspositionTableOptim(b)
		sc.config.Persist(config.ConfigTranspositionTable, b)
	case "tokens":
		tokens, err := config.ParseTokens(value)
		if err != nil {
			return nil, err
		}
		sc.tokens = tokens
		sc.config.Persist(config.ConfigTokens, value)
	case "autoscore":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, err
		}
		sc.autoscore = b
		sc.config.Persist(config.ConfigAutoscore, b)
	default:
		return nil, fmt.Errorf("no such option: %s", opt)
	}
	if err := sc.config.Write(); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	return msg("set " + opt + " to " + value), nil
}

func (sc *ShellController) history(cmd *shellcmd) (*Response, error) {
	if sc.store == nil {
		return nil, errors.New("no analysis archive; start the shell with --db-path")
	}
	n := defaultHistoryCount
	if len(cmd.args) > 0 {
		var err error
		n, err = strconv.Atoi(cmd.args[0])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("history: %q is not a positive number", cmd.args[0])
		}
	}
	n, err := cmd.options.IntDefault("n", n)
	if err != nil || n < 1 {
		return nil, fmt.Errorf("history: -n %q is not a positive number", cmd.options["n"])
	}
	recs, err := sc.store.Recent(context.Background(), n)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return msg("No analyses archived yet"), nil
	}
	return msg(historyTable(sc.printer, recs)), nil
}
