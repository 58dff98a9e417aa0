package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to
// stderr. When a log file is configured every record is also written there,
// independent of the console level.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
	file   slog.Handler
}

func (lr *levelRouter) Enabled(ctx context.Context, level slog.Level) bool {
	if lr.file != nil && lr.file.Enabled(ctx, level) {
		return true
	}
	if level >= slog.LevelError {
		return lr.stderr.Enabled(ctx, level)
	}
	return lr.stdout.Enabled(ctx, level)
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if lr.file != nil && lr.file.Enabled(ctx, r.Level) {
		if err := lr.file.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}

	console := lr.stdout
	if r.Level >= slog.LevelError {
		console = lr.stderr
	}
	if !console.Enabled(ctx, r.Level) {
		return nil
	}
	return console.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
	if lr.file != nil {
		next.file = lr.file.WithAttrs(attrs)
	}
	return next
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	next := &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
	if lr.file != nil {
		next.file = lr.file.WithGroup(name)
	}
	return next
}

// newLogger builds the command logger. Operation logs are shown on the
// console only with verbose; warnings and errors always are. If logPath is
// non-empty, all INFO+ records are appended to that file. The returned
// cleanup closes the log file and is never nil.
func newLogger(out, errOut io.Writer, verbose bool, logPath string) (*slog.Logger, func(), error) {
	consoleLevel := slog.LevelWarn
	if verbose {
		consoleLevel = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: consoleLevel}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(out, opts),
		stderr: slog.NewTextHandler(errOut, opts),
	}

	cleanup := func() {}
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		handler.file = slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	return slog.New(handler), cleanup, nil
}
