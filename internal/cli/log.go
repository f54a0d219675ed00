// Package cli implements the gitscroll command-line interface.
//
// The commands follow the pipeline: clone and scan produce a tree, layout
// computes the rectangles of one directory at one zoom level, export renders
// them to files, view explores a tree interactively in the terminal and serve
// exposes the same operations over HTTP.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so long-running steps can report progress.
//
// # Configuration
//
// Defaults for every flag come from a TOML file (see "gitscroll config path").
// Flags given on the command line win.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger writing to w at level, stamping each line with
// the wall clock to centiseconds ("14:32:01.45") so the phases of a clone,
// scan and layout run can be told apart.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one command phase. It is not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the time since newProgress, rounded to milliseconds,
// followed by keyvals:
//
//	INFO Scanned ./repo (312ms) files=1204
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg+" ("+time.Since(p.start).Round(time.Millisecond).String()+")", keyvals...)
}

type ctxKey struct{}

// withLogger attaches l to ctx for the scan, clone and watch helpers that
// only receive a context.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() when there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
