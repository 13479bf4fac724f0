// Package logging configures the logrus logger shared by the CLI and the
// generation pipeline, and carries request-scoped loggers through contexts.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type contextKey struct{}

// New returns a logger writing to stderr at the given level. Format is
// "text" or "json".
func New(level, format string) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	l.SetLevel(lvl)

	switch format {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format: %q", format)
	}
	return l, nil
}

// Discard returns a logger that drops everything. Used by tests and as the
// fallback when no logger is configured.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// NewContext attaches l to ctx.
func NewContext(ctx context.Context, l logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger attached to ctx, or the logrus standard
// logger when none is set.
func FromContext(ctx context.Context) logrus.FieldLogger {
	if l, ok := ctx.Value(contextKey{}).(logrus.FieldLogger); ok {
		return l
	}
	return logrus.StandardLogger()
}
