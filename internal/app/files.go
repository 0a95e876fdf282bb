package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/recongraph/internal/filestate"
	"github.com/vk/recongraph/internal/reconstruct"
	"github.com/vk/recongraph/internal/registry"
	"github.com/vk/recongraph/internal/task"
)

// fileSync mirrors the file store into the graph. Newly loaded files get
// the layers their format calls for unless autoCreate is off, which it is
// while a session is restored.
type fileSync struct {
	graph      *reconstruct.Graph
	registry   *registry.Registry
	logger     *slog.Logger
	autoCreate bool
	watcher    *filestate.Watcher
}

var _ filestate.Listener = (*fileSync)(nil)

func newFileSync(g *reconstruct.Graph, reg *registry.Registry, logger *slog.Logger) *fileSync {
	return &fileSync{graph: g, registry: reg, logger: logger, autoCreate: true}
}

func (s *fileSync) FileLoaded(ctx context.Context, f *filestate.File) error {
	if _, err := s.graph.AddInputFile(f); err != nil {
		return err
	}
	if s.watcher != nil {
		if err := s.watcher.Track(f.FileID()); err != nil {
			s.logger.Warn("Cannot watch file.", "file", f.FileID(), "error", err)
		}
	}
	if !s.autoCreate {
		return nil
	}

	kinds := s.registry.AutoLayerKinds(f.Format())
	if len(kinds) == 0 {
		s.logger.Warn("No layer handles this file format.", "file", f.FileID(), "format", f.Format())
	}
	for _, kind := range kinds {
		if err := s.createLayer(kind, f); err != nil {
			return fmt.Errorf("creating %s layer for %s: %w", kind, f.FileID(), err)
		}
	}
	return nil
}

func (s *fileSync) createLayer(kind task.Kind, f *filestate.File) error {
	t, err := s.registry.NewTask(kind)
	if err != nil {
		return err
	}
	ref, err := s.graph.AddLayer(t, reconstruct.AutoCreated())
	if err != nil {
		return err
	}
	if _, err := s.graph.ConnectInputToFile(f, ref, t.MainInputChannel()); err != nil {
		return err
	}
	s.logger.Info("Layer created for file.", "file", f.FileID(), "layer", ref, "layer_kind", kind)

	if kind == task.KindReconstructionTree {
		if _, ok := s.graph.DefaultReconstructionTreeLayer(); !ok {
			return s.graph.SetDefaultReconstructionTreeLayer(ref)
		}
	}
	return nil
}

func (s *fileSync) FileUnloaded(ctx context.Context, f *filestate.File) error {
	if s.watcher != nil {
		s.watcher.Untrack(f.FileID())
	}
	return s.graph.RemoveInputFile(f)
}

func (s *fileSync) FileModified(ctx context.Context, f *filestate.File) error {
	return s.graph.InputFileModified(f)
}
