package eventsink

import (
	"log/slog"

	"github.com/vk/recongraph/internal/reconstruct"
)

// Log writes every graph event to a structured logger at debug level.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) HandleEvent(ev reconstruct.Event) {
	p := Payload(ev)
	args := make([]any, 0, 2*len(p))
	for _, key := range payloadKeys {
		if v, ok := p[key]; ok && key != "kind" {
			args = append(args, key, v)
		}
	}
	l.logger.Debug("Graph changed.", append([]any{"event", ev.Kind.String()}, args...)...)
}

// payloadKeys fixes the attribute order of log lines.
var payloadKeys = []string{
	"kind", "layer", "layer_kind", "active", "connection", "channel",
	"source_layer", "file", "old_default", "new_default",
}
