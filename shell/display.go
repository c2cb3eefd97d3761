package shell

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/message"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/solver"
	"github.com/domino14/mnk/store"
)

const dividerWidth = 60

const scoreExplanation = `--- Scoring explanation ---
 0 = the move leads to a draw with best play
>0 = the player on turn forces a win with this move (higher wins sooner)
<0 = the opponent forces a win after this move (lower loses sooner)
 . = the cell is taken

--- Strategy ---
Pick the highest number on the matrix; 0 if nothing is positive.`

func divider() string {
	return strings.Repeat("-", dividerWidth)
}

func (sc *ShellController) boardText(g board.GameState) string {
	return g.ToDisplayText(sc.tokens)
}

func (sc *ShellController) showText() string {
	g := sc.current().state
	p := g.PlayerOnTurn()
	var sb strings.Builder
	sb.WriteString(divider())
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%s  |  Moves played: %d  |  Turn: Player %d  |  Player token: %s\n\n",
		g.Shape(), g.MoveCount(), p, sc.tokens[p-1])
	sb.WriteString(sc.boardText(g))
	return sb.String()
}

// scoreMatrix lays the scores out on the board grid. Cells that are not
// legal moves show a dot.
func scoreMatrix(shape board.Shape, scores []solver.MoveScore) string {
	var sb strings.Builder
	for row := 0; row < shape.Height; row++ {
		for col := 0; col < shape.Width; col++ {
			tok := "."
			if ms := scores[row*shape.Width+col]; ms.Legal {
				tok = strconv.Itoa(ms.Score)
			}
			fmt.Fprintf(&sb, "%3s", tok)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func solveStats(p *message.Printer, nodes uint64, elapsed time.Duration) string {
	return p.Sprintf("Searched nodes: %d\n", nodes) +
		fmt.Sprintf("Solve time:     %.2fms\n", float64(elapsed.Microseconds())/1000)
}

func valueText(g board.GameState, v int) string {
	p := g.PlayerOnTurn()
	switch {
	case v > 0:
		return fmt.Sprintf("Value: %d (Player %d wins)", v, p)
	case v < 0:
		return fmt.Sprintf("Value: %d (Player %d wins)", v, 3-p)
	}
	return "Value: 0 (draw)"
}

func historyTable(p *message.Printer, recs []store.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-6s %-10s %-6s %-14s %12s %10s  %s\n",
		"id", "shape", "moves", "best", "nodes", "ms", "created")
	for _, r := range recs {
		shape := r.State.Shape()
		best := solver.BestMoves(r.Scores)
		bestStr := "-"
		if len(best) > 0 {
			bestStr = fmt.Sprintf("%s (%d)", shape.MoveString(best[0]), r.Scores[best[0]].Score)
		}
		fmt.Fprintf(&sb, "%-6d %-10s %-6d %-14s %12s %10.2f  %s\n",
			r.ID, fmt.Sprintf("%dx%d/%d", shape.Width, shape.Height, shape.K),
			r.State.MoveCount(), bestStr, p.Sprintf("%d", r.Nodes),
			float64(r.Duration.Microseconds())/1000, r.Created.Format(time.DateTime))
	}
	return sb.String()
}
