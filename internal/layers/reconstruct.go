package layers

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/recongraph/internal/task"
)

type reconstructParams struct {
	Method string `cty:"reconstruct_method"`
}

// Reconstruct rotates feature collections to the reconstruction time.
type Reconstruct struct {
	inputs
	params reconstructParams
}

func NewReconstruct() *Reconstruct {
	return &Reconstruct{
		inputs: newInputs(),
		params: reconstructParams{Method: "by_plate_id"},
	}
}

func (t *Reconstruct) Kind() task.Kind { return task.KindReconstruct }

func (t *Reconstruct) InputChannels() []task.ChannelDefinition {
	return []task.ChannelDefinition{
		task.FileChannel(task.ChannelReconstructableFeatures, task.MultipleDataInChannel),
		reconstructionTreeChannel,
	}
}

func (t *Reconstruct) MainInputChannel() task.Channel {
	return task.ChannelReconstructableFeatures
}

func (t *Reconstruct) Params() cty.Value { return paramsValue(t.params) }

func (t *Reconstruct) SetParams(v cty.Value) error {
	p, err := decodeParams(t.params, v)
	if err != nil {
		return err
	}
	if err := oneOf("reconstruct_method", p.Method, "by_plate_id", "half_stage_rotation", "vgp"); err != nil {
		return err
	}
	t.params = p
	return nil
}

func (t *Reconstruct) Compute(ctx context.Context, state task.State) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := t.summarize(t.Kind(), state, t.InputChannels())
	out.Params = nativeParams(t.Params())
	return out, nil
}
