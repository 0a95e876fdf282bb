package registry

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/vk/recongraph/internal/filestate"
	"github.com/vk/recongraph/internal/task"
)

// Module is the interface that all layer modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Factory creates a fresh task for a new or restored layer.
type Factory func() task.Task

// Registry maps layer kinds to the code implementing them, and file formats
// to the layers created automatically when such a file is loaded.
type Registry struct {
	factories  map[task.Kind]Factory
	autoLayers map[filestate.Format][]task.Kind
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		factories:  make(map[task.Kind]Factory),
		autoLayers: make(map[filestate.Format][]task.Kind),
	}
}

// RegisterLayer registers the factory for a layer kind.
func (r *Registry) RegisterLayer(kind task.Kind, factory Factory) {
	if _, exists := r.factories[kind]; exists {
		panic(fmt.Sprintf("layer factory for kind '%s' already registered", kind))
	}
	slog.Debug("Registering layer factory.", "kind", kind)
	r.factories[kind] = factory
}

// RegisterAutoLayer declares that loading a file of the given format
// creates a layer of the given kind, fed by the file on its main channel.
func (r *Registry) RegisterAutoLayer(format filestate.Format, kind task.Kind) {
	if slices.Contains(r.autoLayers[format], kind) {
		panic(fmt.Sprintf("auto layer '%s' for format '%s' already registered", kind, format))
	}
	slog.Debug("Registering auto layer.", "format", format, "kind", kind)
	r.autoLayers[format] = append(r.autoLayers[format], kind)
}

// NewTask creates a task of the given kind.
func (r *Registry) NewTask(kind task.Kind) (task.Task, error) {
	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("no layer registered for kind '%s'", kind)
	}
	return factory(), nil
}

// Kinds lists the registered layer kinds in declaration order.
func (r *Registry) Kinds() []task.Kind {
	var kinds []task.Kind
	for _, k := range task.Kinds() {
		if _, ok := r.factories[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// AutoLayerKinds lists the kinds of layer created for a newly loaded file
// of the given format, in registration order.
func (r *Registry) AutoLayerKinds(format filestate.Format) []task.Kind {
	return slices.Clone(r.autoLayers[format])
}
