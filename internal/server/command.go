package server

import (
	"fmt"
	"strconv"
	"strings"

	"happy-place-engine/internal/geom"
)

type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdMove
	CmdAct
	CmdLook
	CmdHelp
	CmdQuit
)

// Command is one parsed console line. An empty Object targets the
// player's own avatar.
type Command struct {
	Kind   CommandKind
	Object string
	Delta  geom.Point
	Action string
}

const helpText = `commands:
  move [object] <dx> <dy>   move an object, your avatar by default
  n | s | e | w             move your avatar one cell
  act [object] <action>     trigger an action
  look                      redraw the view
  quit                      leave`

var steps = map[string]geom.Point{
	"n": geom.Pt(0, -1),
	"s": geom.Pt(0, 1),
	"e": geom.Pt(1, 0),
	"w": geom.Pt(-1, 0),
}

// ParseCommand parses a console line. Blank lines yield CmdNone.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, nil
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	if d, ok := steps[verb]; ok && len(args) == 0 {
		return Command{Kind: CmdMove, Delta: d}, nil
	}

	switch verb {
	case "move", "m":
		var obj string
		switch len(args) {
		case 2:
		case 3:
			obj, args = args[0], args[1:]
		default:
			return Command{}, fmt.Errorf("usage: move [object] <dx> <dy>")
		}
		dx, err := strconv.Atoi(args[0])
		if err != nil {
			return Command{}, fmt.Errorf("dx: %q is not a number", args[0])
		}
		dy, err := strconv.Atoi(args[1])
		if err != nil {
			return Command{}, fmt.Errorf("dy: %q is not a number", args[1])
		}
		return Command{Kind: CmdMove, Object: obj, Delta: geom.Pt(dx, dy)}, nil
	case "act", "a":
		switch len(args) {
		case 1:
			return Command{Kind: CmdAct, Action: args[0]}, nil
		case 2:
			return Command{Kind: CmdAct, Object: args[0], Action: args[1]}, nil
		}
		return Command{}, fmt.Errorf("usage: act [object] <action>")
	case "look", "l":
		return Command{Kind: CmdLook}, nil
	case "help", "?":
		return Command{Kind: CmdHelp}, nil
	case "quit", "exit", "q":
		return Command{Kind: CmdQuit}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q, try help", verb)
}
