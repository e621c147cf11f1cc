package cliapp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LogFormat selects one of the three output formatters the original
// cli/logger.rs offered: a human-readable default, an HTML fragment
// (for embedding build logs in a generated page), or a plain
// machine-parseable form.
type LogFormat string

const (
	LogAuto  LogFormat = "auto"
	LogHTML  LogFormat = "html"
	LogPlain LogFormat = "plain"
)

// NewLogger builds a slog.Logger whose handler renders one of the three
// formats; the html format stamps each record with a run-scoped
// correlation id (the auto and plain formats do not print it),
// grounded on mercator-hq-jupiter/pkg/telemetry/logging/logger.go's
// Logger{slog, format, ...} wrapper.
func NewLogger(w io.Writer, format LogFormat, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	runID := uuid.NewString()
	return slog.New(&formatHandler{w: w, format: format, level: level, runID: runID})
}

type formatHandler struct {
	w      io.Writer
	format LogFormat
	level  slog.Level
	runID  string
	attrs  []slog.Attr
}

func (h *formatHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *formatHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	ts := r.Time.Format(time.RFC3339)

	switch h.format {
	case LogHTML:
		b.WriteString(fmt.Sprintf("<div class=\"log %s\" id=\"%s\">%s %s</div>\n", r.Level, h.runID, ts, r.Message))
	case LogPlain:
		b.WriteString(fmt.Sprintf("%s\t%s\t%s\n", ts, r.Level, r.Message))
	default:
		b.WriteString(fmt.Sprintf("[%s] %s %s", r.Level, ts, r.Message))
		r.Attrs(func(a slog.Attr) bool {
			b.WriteString(" " + a.Key + "=" + a.Value.String())
			return true
		})
		b.WriteString("\n")
	}

	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *formatHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &cp
}

func (h *formatHandler) WithGroup(name string) slog.Handler { return h }
