package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vk/recongraph/internal/ctxlog"
	"github.com/vk/recongraph/internal/eventsink"
	"github.com/vk/recongraph/internal/filestate"
	"github.com/vk/recongraph/internal/reconstruct"
	"github.com/vk/recongraph/internal/registry"
	"github.com/vk/recongraph/internal/telemetry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry

	store    *filestate.Store
	files    *fileSync
	graph    *reconstruct.Graph
	recorder *eventsink.Recorder

	httpServer *http.Server

	mu       sync.Mutex
	results  []*reconstruct.UpdateResult
	lastTime float64
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, registry and
// graph.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All layer modules registered.", "count", len(modules))

	if err := reg.ValidateRegistry(ctx); err != nil {
		// This is a programmer error (mismatch between kinds and code), so we panic.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	graph := reconstruct.New(
		reconstruct.WithLogger(logger.With("component", "graph")),
		reconstruct.WithTracer(telemetry.Tracer()),
	)
	recorder := eventsink.NewRecorder()
	graph.Subscribe(eventsink.NewLog(logger))
	graph.Subscribe(recorder)

	store := filestate.NewStore()
	files := newFileSync(graph, reg, logger)
	store.AddListener(files)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		store:    store,
		files:    files,
		graph:    graph,
		recorder: recorder,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Graph returns the application's layer graph. It must not be used while
// Run is in progress.
func (a *App) Graph() *reconstruct.Graph {
	return a.graph
}

// Events returns the recorder that sees every graph event.
func (a *App) Events() *eventsink.Recorder {
	return a.recorder
}

// Results returns the update results produced so far.
func (a *App) Results() []*reconstruct.UpdateResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*reconstruct.UpdateResult, len(a.results))
	copy(out, a.results)
	return out
}
