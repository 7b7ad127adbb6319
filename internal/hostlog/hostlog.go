// Package hostlog is the diagnostic hook a host runtime offers to fabric code.
// Fabric code takes a Logger rather than binding to any particular host, so it
// runs the same under tests, the CLI, or an embedding process.
package hostlog

import (
	"context"
	"log/slog"
)

// Logger receives diagnostic messages, optionally with one numeric payload.
type Logger interface {
	Log(msg string)
	LogF32(msg string, v float32)
	LogU32(msg string, v uint32)
}

// Nop discards everything.
var Nop Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Log(string)             {}
func (nopLogger) LogF32(string, float32) {}
func (nopLogger) LogU32(string, uint32)  {}

// Func adapts a single function to Logger. The payload is nil for Log.
type Func func(msg string, payload any)

func (f Func) Log(msg string)               { f(msg, nil) }
func (f Func) LogF32(msg string, v float32) { f(msg, v) }
func (f Func) LogU32(msg string, v uint32)  { f(msg, v) }

// Slog forwards messages to a structured logger at a fixed level.
type Slog struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlog returns a Logger writing to l at info level. A nil l uses
// slog.Default().
func NewSlog(l *slog.Logger) *Slog {
	if l == nil {
		l = slog.Default()
	}
	return &Slog{logger: l, level: slog.LevelInfo}
}

// WithLevel returns a copy logging at level.
func (s *Slog) WithLevel(level slog.Level) *Slog {
	return &Slog{logger: s.logger, level: level}
}

func (s *Slog) Log(msg string) {
	s.logger.Log(context.Background(), s.level, msg)
}

func (s *Slog) LogF32(msg string, v float32) {
	s.logger.Log(context.Background(), s.level, msg, "value", v)
}

func (s *Slog) LogU32(msg string, v uint32) {
	s.logger.Log(context.Background(), s.level, msg, "value", v)
}
