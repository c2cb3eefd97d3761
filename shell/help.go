package shell

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed helptext/*.txt
var helptext embed.FS

var helpTopics = []string{
	"new", "play", "undo", "show", "scores", "solve", "set", "history", "script",
}

func usage(mode string) (*Response, error) {
	dat, err := fs.ReadFile(helptext, "helptext/usage-"+mode+".txt")
	if err != nil {
		return nil, fmt.Errorf("error loading helptext: %w", err)
	}
	return msg(string(dat)), nil
}

func usageTopic(topic string) (*Response, error) {
	dat, err := fs.ReadFile(helptext, "helptext/"+topic+".txt")
	if err != nil {
		return nil, fmt.Errorf("there is no help text for the topic %s", topic)
	}
	return msg(strings.TrimRight(string(dat), "\n")), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return usage("standard")
	}
	return usageTopic(cmd.args[0])
}
