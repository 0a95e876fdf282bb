package session

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/recongraph/internal/ctxlog"
	"github.com/vk/recongraph/internal/reconstruct"
	"github.com/vk/recongraph/internal/registry"
	"github.com/vk/recongraph/internal/task"
)

// FileResolver turns a persisted path into a loaded file handle.
type FileResolver func(ctx context.Context, path string) (task.FileHandle, error)

// Restored maps the ids of a restored model to the graph objects created
// for them.
type Restored struct {
	Files  map[string]task.FileHandle
	Layers map[string]reconstruct.LayerRef
}

// Restore rebuilds m inside g. Every layer is created before any connection
// is replayed, so connection order in the model does not matter.
func Restore(ctx context.Context, g *reconstruct.Graph, reg *registry.Registry, m *Model, resolve FileResolver) (*Restored, error) {
	logger := ctxlog.FromContext(ctx)
	out := &Restored{
		Files:  make(map[string]task.FileHandle, len(m.Files)),
		Layers: make(map[string]reconstruct.LayerRef, len(m.Layers)),
	}

	for _, f := range m.Files {
		if _, dup := out.Files[f.ID]; dup {
			return nil, fmt.Errorf("duplicate file id '%s'", f.ID)
		}
		h, err := resolve(ctx, f.Path)
		if err != nil {
			return nil, fmt.Errorf("loading file '%s': %w", f.Path, err)
		}
		if _, err := g.AddInputFile(h); err != nil {
			return nil, fmt.Errorf("adding file '%s': %w", f.Path, err)
		}
		out.Files[f.ID] = h
	}

	for _, def := range m.Layers {
		if _, dup := out.Layers[def.ID]; dup {
			return nil, fmt.Errorf("duplicate layer id '%s'", def.ID)
		}
		ref, err := restoreLayer(g, reg, def)
		if err != nil {
			return nil, fmt.Errorf("layer '%s': %w", def.ID, err)
		}
		out.Layers[def.ID] = ref
	}

	for i, c := range m.Connections {
		if err := restoreConnection(g, out, c); err != nil {
			return nil, fmt.Errorf("connection %d: %w", i, err)
		}
	}

	if m.DefaultLayer != "" {
		ref, ok := out.Layers[m.DefaultLayer]
		if !ok {
			return nil, fmt.Errorf("default layer '%s' is not defined", m.DefaultLayer)
		}
		if err := g.SetDefaultReconstructionTreeLayer(ref); err != nil {
			return nil, fmt.Errorf("setting default layer: %w", err)
		}
	}

	logger.Debug("Session restored.", "files", len(m.Files), "layers", len(m.Layers), "connections", len(m.Connections))
	return out, nil
}

func restoreLayer(g *reconstruct.Graph, reg *registry.Registry, def *Layer) (reconstruct.LayerRef, error) {
	kind, err := task.ParseKind(def.Kind)
	if err != nil {
		return reconstruct.LayerRef{}, err
	}
	t, err := reg.NewTask(kind)
	if err != nil {
		return reconstruct.LayerRef{}, err
	}
	if !def.Params.IsNull() {
		c, ok := t.(task.Configurable)
		switch {
		case ok:
			if err := c.SetParams(def.Params); err != nil {
				return reconstruct.LayerRef{}, fmt.Errorf("invalid parameters: %w", err)
			}
		case !isEmptyObject(def.Params):
			return reconstruct.LayerRef{}, fmt.Errorf("kind '%s' takes no parameters", kind)
		}
	}

	var opts []reconstruct.LayerOption
	if def.AutoCreated {
		opts = append(opts, reconstruct.AutoCreated())
	}
	ref, err := g.AddLayer(t, opts...)
	if err != nil {
		return reconstruct.LayerRef{}, err
	}
	if !def.Active {
		if err := g.SetLayerActive(ref, false); err != nil {
			return reconstruct.LayerRef{}, err
		}
	}
	return ref, nil
}

func isEmptyObject(v cty.Value) bool {
	ty := v.Type()
	return (ty.IsObjectType() && len(ty.AttributeTypes()) == 0) || (ty.IsMapType() && v.LengthInt() == 0)
}

func restoreConnection(g *reconstruct.Graph, r *Restored, c *Connection) error {
	target, ok := r.Layers[c.Target]
	if !ok {
		return fmt.Errorf("target layer '%s' is not defined", c.Target)
	}
	ch, err := task.ParseChannel(c.Channel)
	if err != nil {
		return err
	}

	switch {
	case c.SourceFile != "" && c.SourceLayer != "":
		return fmt.Errorf("both source_file and source_layer are set")
	case c.SourceFile != "":
		f, ok := r.Files[c.SourceFile]
		if !ok {
			return fmt.Errorf("source file '%s' is not defined", c.SourceFile)
		}
		_, err = g.ConnectInputToFile(f, target, ch)
	case c.SourceLayer != "":
		src, ok := r.Layers[c.SourceLayer]
		if !ok {
			return fmt.Errorf("source layer '%s' is not defined", c.SourceLayer)
		}
		_, err = g.ConnectInputToLayerOutput(src, target, ch)
	default:
		return fmt.Errorf("connection to '%s' has no source", c.Target)
	}
	return err
}
