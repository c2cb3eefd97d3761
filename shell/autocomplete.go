package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"new": {
		Options: []string{"-w", "-h", "-k"},
	},
	"scores": {
		Options: []string{"-tt"},
	},
	"solve": {
		Options: []string{"-tt"},
	},
	"set": {
		Args: []string{"tt", "tokens", "autoscore"},
	},
	"help": {
		Args: helpTopics,
	},
	"history": {
		Options: []string{"-n"},
		Args:    []string{"5", "10", "25"},
	},
}

// Common command names for command completion
var commandNames = []string{
	"help", "new", "play", "p", "undo", "u", "show", "s", "scores", "solve",
	"explain", "set", "history", "script", "exit", "bye",
}

var boolValues = []string{"true", "false"}

// openCells lists the empty cells of the current position as row,col.
func (c *ShellCompleter) openCells() []string {
	g := c.sc.current().state
	shape := g.Shape()
	return lo.FilterMap(lo.Range(shape.Cells()), func(cell int, _ int) (string, bool) {
		return shape.MoveString(cell), g.IsValidMove(cell)
	})
}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		// number of finished arguments after the command
		argn := len(fields) - 1
		if !endsWithSpace {
			argn--
		}

		metadata := commandMetadata[cmdName]
		switch {
		case argn > 0 && fields[argn] == "-tt":
			completions = boolValues
		case strings.HasPrefix(prefix, "-") && len(metadata.Options) > 0:
			completions = metadata.Options
		case cmdName == "play" || cmdName == "p":
			if argn == 0 {
				completions = c.openCells()
			}
		case cmdName == "set" && argn == 1:
			switch fields[1] {
			case "tt", "autoscore":
				completions = boolValues
			case "tokens":
				completions = []string{"X,O", "x,o", "●,○"}
			}
		case argn == 0:
			completions = metadata.Args
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			suffix := completion[len(prefix):]
			matches = append(matches, []rune(suffix))
		}
	}

	return matches, len(prefix)
}
