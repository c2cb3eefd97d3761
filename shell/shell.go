package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/config"
	"github.com/domino14/mnk/solver"
	"github.com/domino14/mnk/store"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errNoGame            = errors.New("the game is over; start a new one with `new`")
	errQuit              = errors.New("sending quit signal")
)

const defaultHistoryFile = "/tmp/mnk_readline.tmp"

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

// ply is a position in the game along with the player who won by
// reaching it, if anyone did.
type ply struct {
	state  board.GameState
	winner int
}

type ShellController struct {
	l          *readline.Instance
	config     *config.Config
	execPath   string
	gitVersion string

	solver *solver.Solver
	store  *store.Store
	// plies[0] is the starting position; the last entry is the current one.
	plies     []ply
	tokens    [2]string
	autoscore bool

	printer *message.Printer
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

// newController sets up everything except the terminal.
func newController(cfg *config.Config, execPath, gitVersion string) (*ShellController, error) {
	sc := &ShellController{
		config:     cfg,
		execPath:   execPath,
		gitVersion: gitVersion,
		solver:     &solver.Solver{},
		autoscore:  cfg.GetBool(config.ConfigAutoscore),
		printer:    message.NewPrinter(language.English),
	}
	tokens, err := cfg.Tokens()
	if err != nil {
		return nil, err
	}
	sc.tokens = tokens
	shape, err := cfg.BoardShape()
	if err != nil {
		return nil, err
	}
	if err := sc.startGame(shape); err != nil {
		return nil, err
	}
	return sc, nil
}

func NewShellController(cfg *config.Config, execPath, gitVersion string) *ShellController {
	sc, err := newController(cfg, execPath, gitVersion)
	if err != nil {
		log.Err(err).Msg("bad-config-using-defaults")
		sc, err = newController(config.DefaultConfig(), execPath, gitVersion)
		if err != nil {
			panic(err)
		}
	}
	if dbPath := cfg.GetString(config.ConfigDBPath); dbPath != "" {
		st, err := store.Open(context.Background(), dbPath)
		if err != nil {
			log.Err(err).Str("path", dbPath).Msg("could-not-open-store")
		} else {
			sc.store = st
		}
	}

	historyFile := cfg.GetString(config.ConfigHistoryFile)
	if historyFile == "" {
		historyFile = defaultHistoryFile
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mmnk>\033[0m ",
		HistoryFile:     historyFile,
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	return sc
}

// startGame binds the solver to shape and clears the board.
func (sc *ShellController) startGame(shape board.Shape) error {
	if sc.solver.Shape() != shape {
		if err := sc.solver.Init(shape); err != nil {
			return err
		}
	}
	sc.solver.SetTranspositionTableOptim(sc.config.GetBool(config.ConfigTranspositionTable))
	sc.solver.SetTTableMemFraction(sc.config.GetFloat64(config.ConfigTTableMemFraction))
	sc.plies = []ply{{state: board.NewGameState(shape)}}
	return nil
}

func (sc *ShellController) current() ply {
	return sc.plies[len(sc.plies)-1]
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.l.Stderr())
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// extractFields splits a line into a command, its arguments and its
// -option value pairs.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for idx := 1; idx < len(fields); idx++ {
		if strings.HasPrefix(fields[idx], "-") && len(fields[idx]) > 1 && !isNumber(fields[idx][1:]) {
			if idx == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			options[fields[idx][1:]] = fields[idx+1]
			idx++
			continue
		}
		args = append(args, fields[idx])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func isNumber(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != ',' {
			return false
		}
	}
	return s != ""
}

// checkOptions rejects options the command does not take.
func checkOptions(cmd *shellcmd) error {
	allowed := commandMetadata[cmd.cmd].Options
	for key := range cmd.options {
		if !lo.Contains(allowed, "-"+key) {
			return fmt.Errorf("%s: unknown option -%s", cmd.cmd, key)
		}
	}
	return nil
}

func (sc *ShellController) executeCommand(cmd *shellcmd) (*Response, error) {
	if lo.Contains(commandNames, cmd.cmd) {
		if err := checkOptions(cmd); err != nil {
			return nil, err
		}
	}
	switch cmd.cmd {
	case "exit", "bye":
		return nil, errQuit
	case "help":
		return sc.help(cmd)
	case "new":
		return sc.newGame(cmd)
	case "play", "p":
		return sc.play(cmd)
	case "undo", "u":
		return sc.undo(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "scores":
		return sc.scores(cmd)
	case "solve":
		return sc.solve(cmd)
	case "explain":
		return sc.explain(cmd)
	case "set":
		return sc.set(cmd)
	case "history":
		return sc.history(cmd)
	case "script":
		return sc.script(cmd)
	default:
		msg := fmt.Sprintf("command %q not found; try `help`", cmd.cmd)
		log.Debug().Msg(msg)
		return nil, errors.New(msg)
	}
}

// Execute runs a single command line, for example one passed on the
// command line instead of typed into the shell.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	cmd, err := extractFields(line)
	if err != nil {
		sc.showError(err)
		return
	}
	resp, err := sc.executeCommand(cmd)
	if errors.Is(err, errQuit) {
		sig <- syscall.SIGINT
		return
	}
	if err != nil {
		sc.showError(err)
		return
	}
	if resp != nil {
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()
	sc.showMessage(sc.showText())

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cmd, err := extractFields(line)
		if err != nil {
			sc.showError(err)
			continue
		}
		resp, err := sc.executeCommand(cmd)
		if errors.Is(err, errQuit) {
			sig <- syscall.SIGINT
			break
		}
		if err != nil {
			sc.showError(err)
			continue
		}
		if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

func (sc *ShellController) Cleanup() {
	if sc.store != nil {
		if err := sc.store.Close(); err != nil {
			log.Err(err).Msg("closing-store")
		}
	}
}
