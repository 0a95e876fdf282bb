package app

import (
	"io"
	"log/slog"
)

const serviceName = "recongraph"

// newLogger creates an isolated slog.Logger; it never touches the global
// logger. Unknown levels fall back to info, unknown formats to text. Every
// record carries the service name so that logs from several processes can be
// merged.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch formatStr {
	case "json":
		handler = slog.NewJSONHandler(outW, handlerOpts)
	default:
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler).With("service", serviceName)
}
