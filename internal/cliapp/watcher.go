package cliapp

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritamzico/murk/internal/engine"
)

// runWatch drains cmds once (the initial build), then watches paths and
// re-enqueues a BuildCommand on every filesystem change, debounced so a
// burst of saves from one editor write triggers a single rebuild.
// Grounded on mercator-hq-jupiter/pkg/policy/manager/watcher.go's
// watch-then-debounce-then-reload loop.
func runWatch(ctx context.Context, paths []string, loop *engine.Loop, initial chan engine.Command) error {
	if err := loop.Run(ctx, initial); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, p := range paths {
		if err := watcher.Add(p); err != nil {
			return err
		}
	}

	const debounce = 200 * time.Millisecond
	var timer *time.Timer
	rebuild := make(chan struct{}, 1)

	go func() {
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, func() {
					select {
					case rebuild <- struct{}{}:
					default:
					}
				})
			case <-watcher.Errors:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-rebuild:
			loop.State.Clear()
			cmds := make(chan engine.Command, 2)
			cmds <- engine.IndexCommand{Paths: paths}
			cmds <- engine.BuildCommand{Paths: paths}
			close(cmds)
			if err := loop.Run(ctx, cmds); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}
