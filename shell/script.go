package shell

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/cjoudrey/gluahttp"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("mnk_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// New takes optional width, height and k arguments.
func New(L *lua.LState) int {
	var args []string
	for i := 1; i <= L.GetTop(); i++ {
		args = append(args, strconv.Itoa(L.CheckInt(i)))
	}
	sc := getShell(L)
	r, err := sc.newGame(&shellcmd{cmd: "new", args: args})
	if err != nil {
		log.Err(err).Msg("error-executing-new")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	L.Push(lua.LString(r.message))
	return 1
}

func Play(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	r, err := sc.play(&shellcmd{
		cmd:  "play",
		args: []string{strings.TrimSpace(lv)},
	})
	if err != nil {
		log.Err(err).Msg("error-executing-play")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	L.Push(lua.LString(r.message))
	return 1
}

func Show(L *lua.LState) int {
	sc := getShell(L)
	L.Push(lua.LString(sc.showText()))
	return 1
}

// Scores returns a table from "row,col" to score for every legal move, or
// nil and an error message.
func Scores(L *lua.LState) int {
	sc := getShell(L)
	scores, _, _, err := sc.scoreCurrent()
	if err != nil {
		log.Err(err).Msg("error-executing-scores")
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	shape := sc.current().state.Shape()
	tbl := L.NewTable()
	for _, ms := range scores {
		if ms.Legal {
			tbl.RawSetString(shape.MoveString(ms.Cell), lua.LNumber(ms.Score))
		}
	}
	L.Push(tbl)
	return 1
}

func Solve(L *lua.LState) int {
	sc := getShell(L)
	cur := sc.current()
	if cur.winner != 0 {
		L.Push(lua.LNil)
		L.Push(lua.LString(errNoGame.Error()))
		return 2
	}
	v, err := sc.solver.Solve(cur.state)
	if err != nil {
		log.Err(err).Msg("error-executing-solve")
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for script")
	}

	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()

	luajson.Preload(L)
	L.PreloadModule("http", gluahttp.NewHttpModule(&http.Client{}).Loader)

	lsc := L.NewUserData()
	lsc.Value = sc

	L.SetGlobal("mnk_shell", lsc)
	L.SetGlobal("mnk_new", L.NewFunction(New))
	L.SetGlobal("mnk_play", L.NewFunction(Play))
	L.SetGlobal("mnk_show", L.NewFunction(Show))
	L.SetGlobal("mnk_scores", L.NewFunction(Scores))
	L.SetGlobal("mnk_solve", L.NewFunction(Solve))

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return msg("ran " + filepath), nil
}
