// Package murk is the root facade: construct a Project, point it at
// source paths, and Build it to a target format. Mirrors the teacher's
// pgraph.go root facade (New/Load/Save wrapping the internal packages
// behind a small surface), adapted from a graph-query facade to a
// document-build facade.
package murk

import (
	"context"
	"io"
	"log/slog"

	"github.com/ritamzico/murk/internal/cliapp"
	"github.com/ritamzico/murk/internal/engine"
	"github.com/ritamzico/murk/internal/rulelang"
	"github.com/ritamzico/murk/internal/state"
	"github.com/ritamzico/murk/internal/task"
)

// Project is one build run: its shared state plus the chosen output
// format and directory.
type Project struct {
	state  *state.State
	format string
	output string
	logger *slog.Logger
}

// New constructs a Project using lang's rules for format. Pass
// rulelang.Default() (or nil) to compile with no rules, i.e. plaintext.
func New(format, output string, lang *rulelang.Lang, logOut io.Writer) *Project {
	s := state.New()
	if lang == nil {
		lang = rulelang.Default()
	}
	s.SetLang(format, lang)
	return &Project{
		state:  s,
		format: format,
		output: output,
		logger: cliapp.NewLogger(logOut, cliapp.LogAuto, false),
	}
}

// LoadLanguage parses a rule file's text and registers it under name,
// replacing any rules previously loaded for that format.
func (p *Project) LoadLanguage(name, ruleFileSrc string) error {
	lang, err := rulelang.ParseFile(name, ruleFileSrc)
	if err != nil {
		return err
	}
	p.state.SetLang(name, lang)
	p.format = name
	return nil
}

// Build indexes paths and runs them through the full pipeline to
// p.output, blocking until every discovered operation completes.
func (p *Project) Build(ctx context.Context, paths []string) error {
	loop := engine.New(p.state, p.format, p.output, false, p.logger)
	cmds := make(chan engine.Command, 2)
	cmds <- engine.IndexCommand{Paths: paths}
	cmds <- engine.BuildCommand{Paths: paths, Format: p.format, Output: p.output}
	close(cmds)
	return loop.Run(ctx, cmds)
}

// Graph renders the current operation dependency graph as PlantUML.
func (p *Project) Graph(headers bool) (string, error) {
	return task.Graph(headers, p.state)
}
