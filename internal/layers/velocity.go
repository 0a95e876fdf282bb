package layers

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/recongraph/internal/task"
)

type velocityParams struct {
	DeltaTime float64 `cty:"delta_time"`
	Method    string  `cty:"velocity_method"`
}

var velocityMethods = []string{
	"t_plus_delta_t_to_t",
	"t_to_t_minus_delta_t",
	"t_plus_minus_half_delta_t",
}

// VelocityFieldCalculator computes velocities at domain points using the
// surfaces of reconstructed, resolved or network layers.
type VelocityFieldCalculator struct {
	inputs
	params velocityParams
}

func NewVelocityFieldCalculator() *VelocityFieldCalculator {
	return &VelocityFieldCalculator{
		inputs: newInputs(),
		params: velocityParams{DeltaTime: 1, Method: "t_plus_delta_t_to_t"},
	}
}

func (t *VelocityFieldCalculator) Kind() task.Kind { return task.KindVelocityFieldCalculator }

func (t *VelocityFieldCalculator) InputChannels() []task.ChannelDefinition {
	return []task.ChannelDefinition{
		task.FileChannel(task.ChannelVelocityDomainFeatures, task.MultipleDataInChannel),
		task.LayerChannel(task.ChannelVelocitySurfaceLayers, task.MultipleDataInChannel,
			task.KindReconstruct, task.KindTopologyGeometryResolver, task.KindTopologyNetworkResolver),
		reconstructionTreeChannel,
	}
}

func (t *VelocityFieldCalculator) MainInputChannel() task.Channel {
	return task.ChannelVelocityDomainFeatures
}

func (t *VelocityFieldCalculator) Params() cty.Value { return paramsValue(t.params) }

func (t *VelocityFieldCalculator) SetParams(v cty.Value) error {
	p, err := decodeParams(t.params, v)
	if err != nil {
		return err
	}
	if p.DeltaTime <= 0 {
		return fmt.Errorf("parameter %q must be positive, got %g", "delta_time", p.DeltaTime)
	}
	if err := oneOf("velocity_method", p.Method, velocityMethods...); err != nil {
		return err
	}
	t.params = p
	return nil
}

func (t *VelocityFieldCalculator) Compute(ctx context.Context, state task.State) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := t.summarize(t.Kind(), state, t.InputChannels())
	out.Params = nativeParams(t.Params())
	return out, nil
}
