package engine

import "github.com/ritamzico/murk/internal/types"

// Command is what the CLI/reader feeds into the event loop. Mirrors the
// original Command enum in cli/command.rs's runtime counterpart.
type Command interface{ isCommand() }

type IndexCommand struct{ Paths []string }
type BuildCommand struct {
	Paths  []string
	Format string
	Output string
	Split  string
}
type GraphCommand struct{ Headers bool }
type ExitCommand struct{}

func (IndexCommand) isCommand() {}
func (BuildCommand) isCommand() {}
func (GraphCommand) isCommand() {}
func (ExitCommand) isCommand() {}

// Event describes the result of dispatching one operation. Loop.Run's
// select reads only the command channel; nothing in this package sends or
// receives an Event.
type Event struct {
	URI  types.URI
	More bool // Ok(true): this operation spawned further operations to run
	Err  error
}
