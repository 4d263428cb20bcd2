// Package logging sets up the process logger and carries request-scoped
// loggers through context.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey struct{}

type Options struct {
	Service string
	Level   string
	AppEnv  string
	// Output defaults to stdout.
	Output io.Writer
}

// Init builds the logger, installs it as the slog default and returns it.
// Development gets human readable text, every other environment JSON.
func Init(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	hopts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if opts.AppEnv == "development" {
		handler = slog.NewTextHandler(out, hopts)
	} else {
		handler = slog.NewJSONHandler(out, hopts)
	}

	logger := slog.New(handler).With("service", opts.Service)
	slog.SetDefault(logger)
	return logger
}

func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// With returns ctx carrying the context logger enriched with args.
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(args...))
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
