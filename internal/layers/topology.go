package layers

import (
	"context"
	"fmt"

	"github.com/vk/recongraph/internal/task"
)

// TopologyGeometryResolver resolves plate boundaries and slab edges from
// topological features whose sections come from reconstructed layers.
type TopologyGeometryResolver struct {
	inputs
}

func NewTopologyGeometryResolver() *TopologyGeometryResolver {
	return &TopologyGeometryResolver{inputs: newInputs()}
}

func (t *TopologyGeometryResolver) Kind() task.Kind { return task.KindTopologyGeometryResolver }

func (t *TopologyGeometryResolver) InputChannels() []task.ChannelDefinition {
	return []task.ChannelDefinition{
		task.FileChannel(task.ChannelTopologicalGeometryFeatures, task.MultipleDataInChannel),
		task.LayerChannel(task.ChannelTopologicalSectionLayers, task.MultipleDataInChannel,
			task.KindReconstruct),
		reconstructionTreeChannel,
	}
}

func (t *TopologyGeometryResolver) MainInputChannel() task.Channel {
	return task.ChannelTopologicalGeometryFeatures
}

func (t *TopologyGeometryResolver) Compute(ctx context.Context, state task.State) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.summarize(t.Kind(), state, t.InputChannels()), nil
}

// TopologyNetworkResolver resolves deforming networks. Its sections may
// come from reconstructed layers and from resolved boundaries.
type TopologyNetworkResolver struct {
	inputs
}

func NewTopologyNetworkResolver() *TopologyNetworkResolver {
	return &TopologyNetworkResolver{inputs: newInputs()}
}

func (t *TopologyNetworkResolver) Kind() task.Kind { return task.KindTopologyNetworkResolver }

func (t *TopologyNetworkResolver) InputChannels() []task.ChannelDefinition {
	return []task.ChannelDefinition{
		task.FileChannel(task.ChannelTopologicalNetworkFeatures, task.MultipleDataInChannel),
		task.LayerChannel(task.ChannelTopologicalSectionLayers, task.MultipleDataInChannel,
			task.KindReconstruct, task.KindTopologyGeometryResolver),
		reconstructionTreeChannel,
	}
}

func (t *TopologyNetworkResolver) MainInputChannel() task.Channel {
	return task.ChannelTopologicalNetworkFeatures
}

func (t *TopologyNetworkResolver) Compute(ctx context.Context, state task.State) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(t.files[task.ChannelTopologicalNetworkFeatures]) > 0 && len(t.proxies[task.ChannelTopologicalSectionLayers]) > 0 &&
		len(t.upstream(task.ChannelTopologicalSectionLayers)) == 0 {
		return nil, fmt.Errorf("no topological section layer produced output at %g Ma", state.Time)
	}
	return t.summarize(t.Kind(), state, t.InputChannels()), nil
}
