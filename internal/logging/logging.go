// Package logging initializes the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Options selects the log level and output format.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text, json
	// LogsDir, when set, mirrors log output into a dated file under it.
	LogsDir string
}

// Init installs the default slog logger. It returns a close function for the
// log file, which is a no-op when no LogsDir was given.
func Init(opts Options) (func() error, error) {
	var level slog.Level
	switch opts.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	out := io.Writer(os.Stderr)
	closeFn := func() error { return nil }

	if opts.LogsDir != "" {
		if err := os.MkdirAll(opts.LogsDir, 0o755); err != nil {
			return nil, err
		}
		name := "harvest_" + time.Now().Format("20060102") + ".log"
		f, err := os.OpenFile(filepath.Join(opts.LogsDir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(os.Stderr, f)
		closeFn = f.Close
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if opts.Format == "json" {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))

	return closeFn, nil
}
