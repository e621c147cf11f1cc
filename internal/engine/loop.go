// Package engine is the scheduler: a single-threaded cooperative event
// loop that ingests commands, batches the operation graph into dependency
// levels, dispatches tasks, and applies the batch/interactive error
// policy. Ported from the original cli/mod.rs and cli/state.rs.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ritamzico/murk/internal/opgraph"
	"github.com/ritamzico/murk/internal/state"
	"github.com/ritamzico/murk/internal/task"
	"github.com/ritamzico/murk/internal/types"
)

// Loop owns one run's State and drives it to completion.
type Loop struct {
	State      *state.State
	Format     string
	OutputRoot string
	Interactive bool
	Logger     *slog.Logger
}

func New(s *state.State, format, outputRoot string, interactive bool, logger *slog.Logger) *Loop {
	return &Loop{State: s, Format: format, OutputRoot: outputRoot, Interactive: interactive, Logger: logger}
}

// Run consumes commands from cmds until ExitCommand or the channel closes,
// applying the priority order: drain a ready command first, otherwise run
// one scheduler pass over whatever operations are not yet processed.
// Within a pass, every operation in one grouped-topological-sort level
// runs concurrently (none in a level depends on another), and the loop
// waits for the whole level before moving to the next -- this is the
// single point of concurrency the cooperative model allows; everything
// else about the loop itself is single-threaded.
func (l *Loop) Run(ctx context.Context, cmds <-chan Command) error {
	for {
		select {
		case cmd, ok := <-cmds:
			if !ok {
				return l.drain(ctx)
			}
			if err := l.handle(ctx, cmd); err != nil {
				if err == types.ErrExit {
					return nil
				}
				if !l.Interactive {
					return err
				}
				l.Logger.Error("command failed", "error", err)
			}
		default:
			if task.Finish(l.State) {
				return nil
			}
			if err := l.pass(ctx); err != nil {
				if !l.Interactive {
					return err
				}
				l.Logger.Error("scheduler pass failed", "error", err)
			}
		}
	}
}

// drain runs scheduler passes until every operation is processed, used
// once the command channel is closed (batch mode with no more input).
func (l *Loop) drain(ctx context.Context) error {
	for !task.Finish(l.State) {
		if err := l.pass(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loop) handle(ctx context.Context, cmd Command) error {
	switch c := cmd.(type) {
	case IndexCommand:
		_, err := task.Index(c.Paths, l.State)
		return err
	case BuildCommand:
		unlock := l.State.LockOperations()
		for _, p := range c.Paths {
			l.State.Operations.InsertNode(opgraph.Op{Kind: opgraph.OpGather, Path: p})
		}
		unlock()
		return nil
	case GraphCommand:
		out, err := task.Graph(c.Headers, l.State)
		if err != nil {
			return err
		}
		l.Logger.Info("dependency graph", "plantuml", out)
		return nil
	case ExitCommand:
		return types.ErrExit
	default:
		return types.NewError(types.KindInternal, "unknown command")
	}
}

// pass sorts the graph once into grouped-topological-sort levels and runs
// every level in order, skipping operations already marked processed.
func (l *Loop) pass(ctx context.Context) error {
	unlock := l.State.LockOperations()
	levels, err := l.State.Operations.GroupedTopologicalSort()
	unlock()
	if err != nil {
		return types.WrapError(types.KindInternal, "scheduling", err)
	}

	for _, level := range levels {
		var wg sync.WaitGroup
		errs := make([]error, len(level))

		for i, uri := range level {
			if l.State.IsProcessed(uri) {
				continue
			}
			unlock := l.State.LockOperations()
			op, ok := l.State.Operations.Get(uri)
			unlock()
			if !ok {
				continue
			}

			wg.Add(1)
			go func(i int, op opgraph.Op) {
				defer wg.Done()
				more, err := l.dispatch(ctx, op)
				if err != nil {
					errs[i] = err
					return
				}
				l.State.MarkProcessed(op.URI())
				_ = more
			}(i, op)
		}
		wg.Wait()

		for _, e := range errs {
			if e != nil {
				return e
			}
		}
	}
	return nil
}

func (l *Loop) dispatch(ctx context.Context, op opgraph.Op) (bool, error) {
	switch op.Kind {
	case opgraph.OpIndex:
		return task.Index([]string{op.Path}, l.State)
	case opgraph.OpGather:
		return task.Gather(op, l.State)
	case opgraph.OpLoad:
		return task.Load(op, l.State)
	case opgraph.OpParse:
		return task.Parse(op, l.State)
	case opgraph.OpPreprocess:
		return task.Preprocess(op, l.Format, l.State)
	case opgraph.OpCompile:
		if l.Format == "" || l.Format == "plaintext" {
			return task.CompilePlaintext(op, l.State)
		}
		return task.Compile(op, l.Format, l.State)
	case opgraph.OpWrite:
		return task.Write(op, l.OutputRoot, l.State)
	case opgraph.OpCopy:
		return task.Copy(op, l.OutputRoot, l.State)
	case opgraph.OpExec:
		return task.Exec(ctx, op, l.State)
	case opgraph.OpTangle:
		return task.Tangle(op, l.State)
	case opgraph.OpGraph:
		_, err := task.Graph(true, l.State)
		return false, err
	case opgraph.OpFinish:
		return false, nil
	default:
		return false, types.NewError(types.KindInternal, "unknown operation kind: "+string(op.Kind))
	}
}
