// Package logging provides the key/value structured logger used across the
// relay service. The default implementation is backed by zerolog.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the structured logger contract. Arguments after msg are
// alternating key/value pairs, e.g. logger.Info("file stored", "file", name).
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a child logger carrying the given key/value pairs.
	With(args ...any) Logger
}

type ZerologLogger struct {
	zl zerolog.Logger
}

func NewZerologLogger(zl zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{zl: zl}
}

// CreateAppLogger builds the base zerolog logger for env: JSON on stdout in
// PROD, human-readable console output otherwise.
func CreateAppLogger(env string) zerolog.Logger {
	var w io.Writer = os.Stdout
	level := zerolog.DebugLevel

	if strings.EqualFold(env, "PROD") {
		level = zerolog.InfoLevel
	} else {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Str("service", "crm-relay").
		Timestamp().
		Logger()
}

// Nop returns a Logger that discards everything. Intended for tests.
func Nop() Logger {
	return NewZerologLogger(zerolog.Nop())
}

func (l *ZerologLogger) Debug(msg string, args ...any) {
	l.write(l.zl.Debug(), msg, args)
}

func (l *ZerologLogger) Info(msg string, args ...any) {
	l.write(l.zl.Info(), msg, args)
}

func (l *ZerologLogger) Warn(msg string, args ...any) {
	l.write(l.zl.Warn(), msg, args)
}

func (l *ZerologLogger) Error(msg string, args ...any) {
	l.write(l.zl.Error(), msg, args)
}

func (l *ZerologLogger) With(args ...any) Logger {
	return &ZerologLogger{zl: l.zl.With().Fields(normalize(args)).Logger()}
}

func (l *ZerologLogger) write(e *zerolog.Event, msg string, args []any) {
	if len(args) > 0 {
		e = e.Fields(normalize(args))
	}
	e.Msg(msg)
}

// normalize turns error values into strings and pads an odd trailing key so
// zerolog never drops a pair.
func normalize(args []any) []any {
	out := make([]any, 0, len(args)+1)
	for i, a := range args {
		if err, ok := a.(error); ok && i%2 == 1 {
			out = append(out, err.Error())
			continue
		}
		out = append(out, a)
	}
	if len(out)%2 == 1 {
		out = append(out, "!MISSING")
	}
	return out
}

type ctxKey struct{}

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or fallback when none is set.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
		return l
	}
	return fallback
}
