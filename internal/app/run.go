package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/vk/recongraph/internal/ctxlog"
	"github.com/vk/recongraph/internal/eventsink"
	"github.com/vk/recongraph/internal/filestate"
	"github.com/vk/recongraph/internal/session"
	"github.com/vk/recongraph/internal/task"
	"github.com/vk/recongraph/internal/telemetry"
)

// Run executes the main application logic: load inputs, update every
// configured reconstruction time, optionally watch the inputs, and save the
// session. The graph is only touched from the goroutine calling Run.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	tcfg := telemetry.DefaultConfig()
	tcfg.TraceExporter = a.config.TraceExporter
	if a.config.OTLPEndpoint != "" {
		tcfg.OTLPEndpoint = a.config.OTLPEndpoint
	}
	shutdownTracing, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("Telemetry shutdown failed.", "error", err)
		}
	}()

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx)
		defer a.closeHealthcheckServer(ctx)
	}

	var sink *eventsink.SocketIO
	if a.config.EventsURL != "" {
		sink, err = eventsink.DialSocketIO(ctx, a.logger, a.config.EventsURL, a.config.EventsNamespace)
		if err != nil {
			return fmt.Errorf("failed to connect event sink: %w", err)
		}
		unsubscribe := a.graph.Subscribe(sink)
		defer func() {
			unsubscribe()
			sink.Close()
		}()
	}

	if err := a.load(ctx); err != nil {
		return err
	}
	a.logger.Info("Inputs loaded.", "files", len(a.store.Files()), "layers", len(a.graph.Layers()))

	for _, t := range a.config.Times() {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.update(ctx, t, sink)
	}

	if a.config.Watch {
		if err := a.watch(ctx, sink); err != nil {
			return err
		}
	}

	if a.config.SaveSessionPath != "" {
		if err := a.SaveSession(a.config.SaveSessionPath); err != nil {
			return err
		}
		a.logger.Info("Session saved.", "path", a.config.SaveSessionPath)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// load restores the configured session and then loads the data paths.
func (a *App) load(ctx context.Context) error {
	if a.config.SessionPath != "" {
		if err := a.restoreSession(ctx, a.config.SessionPath); err != nil {
			return err
		}
	}
	if len(a.config.DataPaths) > 0 {
		if _, err := a.store.LoadPaths(ctx, a.config.DataPaths); err != nil {
			return fmt.Errorf("failed to load input files: %w", err)
		}
	}
	return nil
}

func (a *App) restoreSession(ctx context.Context, path string) error {
	m, err := session.Load(path)
	if err != nil {
		return err
	}

	base := filepath.Dir(path)
	resolve := func(ctx context.Context, p string) (task.FileHandle, error) {
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		f, err := a.store.Load(ctx, p)
		if err != nil {
			return nil, err
		}
		return f, nil
	}

	a.files.autoCreate = false
	defer func() { a.files.autoCreate = true }()
	if _, err := session.Restore(ctx, a.graph, a.registry, m, resolve); err != nil {
		return fmt.Errorf("failed to restore session %s: %w", path, err)
	}
	a.logger.Info("Session restored.", "path", path, "layers", len(m.Layers))
	return nil
}

// SaveSession writes the current graph structure to path.
func (a *App) SaveSession(path string) error {
	m, err := session.Capture(a.graph)
	if err != nil {
		return fmt.Errorf("failed to capture session: %w", err)
	}
	return session.Save(path, m)
}

// update runs one cycle. Layer failures are logged, not returned: they are
// problems with the input data, and the next cycle may succeed.
func (a *App) update(ctx context.Context, t float64, sink *eventsink.SocketIO) {
	res, err := a.graph.Update(ctx, t, a.config.AnchorPlateID)
	if res == nil {
		a.logger.Error("Update rejected.", "time", t, "error", err)
		return
	}
	if err != nil {
		a.logger.Warn("Update finished with failed layers.", "time", t, "failed", len(res.Failed))
	} else {
		a.logger.Info("Update finished.", "time", t, "computed", len(res.Computed), "skipped", len(res.Skipped))
	}
	if sink != nil {
		sink.PublishUpdate(res)
	}

	a.mu.Lock()
	a.results = append(a.results, res)
	a.lastTime = t
	a.mu.Unlock()
}

// watch blocks until ctx is done, re-updating the last reconstruction time
// whenever watched input files change. Changes arrive on the watcher's
// goroutine and are handed to this one over a channel.
func (a *App) watch(ctx context.Context, sink *eventsink.SocketIO) error {
	changes := make(chan []string, 16)
	w, err := filestate.NewWatcher(a.logger, func(ids []string) {
		select {
		case changes <- ids:
		case <-ctx.Done():
		}
	}, a.config.WatchDebounce)
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	for _, f := range a.store.Files() {
		if err := w.Track(f.FileID()); err != nil {
			a.logger.Warn("Cannot watch file.", "file", f.FileID(), "error", err)
		}
	}
	a.files.watcher = w
	w.Start(ctx)
	defer func() {
		a.files.watcher = nil
		w.Stop()
	}()
	a.logger.Info("Watching input files for changes.", "files", len(a.store.Files()))

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Watch stopped.")
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case ids := <-changes:
			if a.applyChanges(ctx, ids) {
				a.mu.Lock()
				t := a.lastTime
				a.mu.Unlock()
				a.update(ctx, t, sink)
			}
		}
	}
}

// applyChanges re-stats the changed files and reports whether any of them
// really changed.
func (a *App) applyChanges(ctx context.Context, ids []string) bool {
	changed := false
	for _, id := range ids {
		ok, err := a.store.Reload(ctx, id)
		if err != nil {
			a.logger.Warn("Cannot reload file.", "file", id, "error", err)
			continue
		}
		changed = changed || ok
	}
	return changed
}

