package layers

import (
	"context"
	"errors"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/recongraph/internal/task"
)

// ErrNoRaster is returned by a raster layer computed without a raster file.
var ErrNoRaster = errors.New("raster layer has no raster_feature input")

type rasterParams struct {
	Band string `cty:"band"`
}

// Raster reconstructs a raster, optionally masked by reconstructed polygons
// and shaded by age grid and normal map rasters.
type Raster struct {
	inputs
	params rasterParams
}

func NewRaster() *Raster {
	return &Raster{inputs: newInputs()}
}

func (t *Raster) Kind() task.Kind { return task.KindRaster }

func (t *Raster) InputChannels() []task.ChannelDefinition {
	return []task.ChannelDefinition{
		task.FileChannel(task.ChannelRasterFeature, task.OneDataInChannel),
		task.LayerChannel(task.ChannelReconstructedPolygons, task.OneDataInChannel, task.KindReconstruct),
		task.LayerChannel(task.ChannelAgeGridRaster, task.OneDataInChannel, task.KindRaster),
		task.LayerChannel(task.ChannelNormalMapRaster, task.OneDataInChannel, task.KindRaster),
		reconstructionTreeChannel,
	}
}

func (t *Raster) MainInputChannel() task.Channel { return task.ChannelRasterFeature }

func (t *Raster) Params() cty.Value { return paramsValue(t.params) }

func (t *Raster) SetParams(v cty.Value) error {
	p, err := decodeParams(t.params, v)
	if err != nil {
		return err
	}
	t.params = p
	return nil
}

func (t *Raster) Compute(ctx context.Context, state task.State) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(t.files[task.ChannelRasterFeature]) == 0 {
		return nil, ErrNoRaster
	}
	out := t.summarize(t.Kind(), state, t.InputChannels())
	out.Params = nativeParams(t.Params())
	return out, nil
}
