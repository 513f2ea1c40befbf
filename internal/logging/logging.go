// Package logging is a slim module-scoped slog wrapper, trimmed from the
// host framework's own logging package down to what a library embedded in
// a larger host needs: structured, leveled output with no file rotation or
// multi-writer fan-out, since the host owns log transport.
package logging

import (
	"log/slog"
	"os"
)

var level = new(slog.LevelVar)

var base = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

// Logger is a *slog.Logger pre-bound with a "component" field.
type Logger struct {
	*slog.Logger
}

// ForComponent returns a Logger that tags every record with component,
// so multi-component log streams stay greppable without a separate logger
// registry.
func ForComponent(component string) *Logger {
	return &Logger{base.With("component", component)}
}

// SetLevel adjusts the minimum level for every Logger returned by
// ForComponent, past and future, since they all share one underlying
// handler's LevelVar.
func SetLevel(l slog.Level) {
	level.Set(l)
}
