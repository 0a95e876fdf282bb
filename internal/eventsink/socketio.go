package eventsink

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/recongraph/internal/reconstruct"
)

// Event names emitted to presentation clients.
const (
	GraphEventName  = "graph_event"
	UpdateEventName = "update_completed"
)

// DefaultConnectTimeout bounds how long DialSocketIO waits for the server.
const DefaultConnectTimeout = 15 * time.Second

// SocketIO forwards graph events and update summaries to a socket.io
// server, one emit per event.
type SocketIO struct {
	logger *slog.Logger
	emit   func(event string, payload map[string]any)
	close  func()
}

// DialSocketIO connects to rawURL and namespace and waits for the connection
// to be acknowledged.
func DialSocketIO(ctx context.Context, logger *slog.Logger, rawURL, namespace string) (*SocketIO, error) {
	logger = logger.With("sink", "socketio", "url", rawURL, "namespace", namespace)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Event sink connected.", "sid", io.Id())
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connected <- err
	})

	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(DefaultConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", DefaultConnectTimeout)
	}

	return newSocketIO(logger,
		func(event string, payload map[string]any) { io.Emit(event, payload) },
		func() { io.Disconnect() },
	), nil
}

func newSocketIO(logger *slog.Logger, emit func(string, map[string]any), closeFn func()) *SocketIO {
	return &SocketIO{logger: logger, emit: emit, close: closeFn}
}

func (s *SocketIO) HandleEvent(ev reconstruct.Event) {
	s.emit(GraphEventName, Payload(ev))
}

// PublishUpdate emits a summary of a finished update cycle.
func (s *SocketIO) PublishUpdate(res *reconstruct.UpdateResult) {
	s.logger.Debug("Publishing update.", "time", res.Time, "failed", len(res.Failed))
	s.emit(UpdateEventName, UpdatePayload(res))
}

func (s *SocketIO) Close() {
	s.logger.Info("Closing event sink.")
	s.close()
}
