// Package cli implements the restaurant-manager command line: the HTTP API
// server, schema migrations and the activity consumer.  Every command takes
// --verbose for debug logging; the logger travels in the command context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger writing to w at level with short timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// step logs how long an operation took once it finishes.
type step struct {
	logger *log.Logger
	start  time.Time
}

func newStep(l *log.Logger) *step { return &step{logger: l, start: time.Now()} }

func (s *step) done(msg string, keyvals ...any) {
	s.logger.Info(msg, append(keyvals, "took", time.Since(s.start).Round(time.Millisecond))...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() when there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
