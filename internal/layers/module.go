package layers

import (
	"github.com/vk/recongraph/internal/filestate"
	"github.com/vk/recongraph/internal/registry"
	"github.com/vk/recongraph/internal/task"
)

// Module registers every built-in layer kind.
type Module struct{}

var _ registry.Module = (*Module)(nil)

func (m *Module) Register(r *registry.Registry) {
	r.RegisterLayer(task.KindReconstructionTree, func() task.Task { return NewReconstructionTree() })
	r.RegisterLayer(task.KindReconstruct, func() task.Task { return NewReconstruct() })
	r.RegisterLayer(task.KindTopologyGeometryResolver, func() task.Task { return NewTopologyGeometryResolver() })
	r.RegisterLayer(task.KindTopologyNetworkResolver, func() task.Task { return NewTopologyNetworkResolver() })
	r.RegisterLayer(task.KindVelocityFieldCalculator, func() task.Task { return NewVelocityFieldCalculator() })
	r.RegisterLayer(task.KindRaster, func() task.Task { return NewRaster() })

	r.RegisterAutoLayer(filestate.FormatRotation, task.KindReconstructionTree)
	r.RegisterAutoLayer(filestate.FormatFeatures, task.KindReconstruct)
	r.RegisterAutoLayer(filestate.FormatTopologyGeometry, task.KindTopologyGeometryResolver)
	r.RegisterAutoLayer(filestate.FormatTopologyNetwork, task.KindTopologyNetworkResolver)
	r.RegisterAutoLayer(filestate.FormatRaster, task.KindRaster)
}
