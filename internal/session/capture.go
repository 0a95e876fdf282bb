package session

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/recongraph/internal/reconstruct"
	"github.com/vk/recongraph/internal/task"
)

// IDGenerator returns a fresh identifier for a captured file or layer.
type IDGenerator func() string

// CaptureOption customizes Capture.
type CaptureOption func(*captureOptions)

type captureOptions struct {
	newID IDGenerator
}

// WithIDGenerator replaces the default random UUID identifiers.
func WithIDGenerator(gen IDGenerator) CaptureOption {
	return func(o *captureOptions) { o.newID = gen }
}

// SequentialIDs returns a generator yielding prefix1, prefix2, ...
func SequentialIDs(prefix string) IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// pathed is implemented by file handles that know where they live on disk.
type pathed interface {
	Path() string
}

// Capture records the structure of g. Layers appear in creation order and
// connections are grouped by receiving layer.
func Capture(g *reconstruct.Graph, opts ...CaptureOption) (*Model, error) {
	o := captureOptions{newID: func() string { return uuid.NewString() }}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Model{}
	fileIDs := make(map[task.FileHandle]string)
	for _, f := range g.InputFiles() {
		id := o.newID()
		fileIDs[f] = id
		path := f.FileID()
		if p, ok := f.(pathed); ok {
			path = p.Path()
		}
		m.Files = append(m.Files, &File{ID: id, Path: path})
	}

	refs := g.Layers()
	layerIDs := make(map[reconstruct.LayerRef]string, len(refs))
	for _, ref := range refs {
		l, ok := ref.Get()
		if !ok {
			return nil, fmt.Errorf("capturing layer %s: handle is stale", ref)
		}
		id := o.newID()
		layerIDs[ref] = id

		params := cty.NilVal
		if c, ok := l.Task().(task.Configurable); ok {
			params = c.Params()
		}
		m.Layers = append(m.Layers, &Layer{
			ID:          id,
			Kind:        l.Kind().String(),
			Active:      l.IsActive(),
			AutoCreated: l.IsAutoCreated(),
			Params:      params,
		})
	}

	for _, ref := range refs {
		l, _ := ref.Get()
		for _, c := range l.InputConnections().All() {
			conn := &Connection{Target: layerIDs[ref], Channel: c.Channel().String()}
			if f, ok := c.SourceFile(); ok {
				conn.SourceFile = fileIDs[f]
			} else if src, ok := c.SourceLayer(); ok {
				conn.SourceLayer = layerIDs[src]
			}
			if conn.SourceFile == "" && conn.SourceLayer == "" {
				return nil, fmt.Errorf("capturing connection %s: source is not part of the graph", c.Ref())
			}
			m.Connections = append(m.Connections, conn)
		}
	}

	if def, ok := g.DefaultReconstructionTreeLayer(); ok {
		m.DefaultLayer = layerIDs[def]
	}
	return m, nil
}
