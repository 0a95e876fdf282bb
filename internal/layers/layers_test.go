package layers

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/recongraph/internal/ctxlog"
	"github.com/vk/recongraph/internal/filestate"
	"github.com/vk/recongraph/internal/registry"
	"github.com/vk/recongraph/internal/task"
)

type fakeFile string

func (f fakeFile) FileID() string { return string(f) }

type fakeProxy struct {
	kind  task.Kind
	value any
	valid bool
}

func (p *fakeProxy) Kind() task.Kind     { return p.kind }
func (p *fakeProxy) Output() (any, bool) { return p.value, p.valid }

func testState() task.State {
	return task.State{
		Time:                      100,
		AnchorPlateID:             701,
		DefaultReconstructionTree: task.IdentityReconstructionTree(100, 701),
	}
}

func TestModuleRegistersEveryKind(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)

	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.DiscardHandler))
	require.NoError(t, r.ValidateRegistry(ctx))
	assert.Equal(t, task.Kinds(), r.Kinds())

	assert.Equal(t, []task.Kind{task.KindReconstructionTree}, r.AutoLayerKinds(filestate.FormatRotation))
	assert.Equal(t, []task.Kind{task.KindReconstruct}, r.AutoLayerKinds(filestate.FormatFeatures))
	assert.Equal(t, []task.Kind{task.KindRaster}, r.AutoLayerKinds(filestate.FormatRaster))
	assert.Empty(t, r.AutoLayerKinds(filestate.FormatUnknown))
}

func TestReconstructionTreeCompute(t *testing.T) {
	tree := NewReconstructionTree()
	ctx := context.Background()

	out, err := tree.Compute(ctx, testState())
	require.NoError(t, err)
	got := out.(*task.ReconstructionTree)
	assert.True(t, got.Identity)

	tree.AddInputFileConnection(task.ChannelReconstructionFeatures, fakeFile("a.rot"))
	tree.AddInputFileConnection(task.ChannelReconstructionFeatures, fakeFile("b.rot"))
	out, err = tree.Compute(ctx, testState())
	require.NoError(t, err)
	got = out.(*task.ReconstructionTree)
	assert.False(t, got.Identity)
	assert.Equal(t, []string{"a.rot", "b.rot"}, got.RotationFiles)
	assert.Equal(t, uint64(701), got.AnchorPlateID)

	tree.RemoveInputFileConnection(task.ChannelReconstructionFeatures, fakeFile("a.rot"))
	out, err = tree.Compute(ctx, testState())
	require.NoError(t, err)
	assert.Equal(t, []string{"b.rot"}, out.(*task.ReconstructionTree).RotationFiles)
}

func TestReconstructPrefersConnectedTree(t *testing.T) {
	layer := NewReconstruct()
	layer.AddInputFileConnection(task.ChannelReconstructableFeatures, fakeFile("coastlines.gpml"))

	out, err := layer.Compute(context.Background(), testState())
	require.NoError(t, err)
	assert.True(t, out.(*Output).Tree.Identity, "falls back to the default tree")

	explicit := &task.ReconstructionTree{Time: 100, AnchorPlateID: 701, RotationFiles: []string{"x.rot"}}
	layer.AddInputLayerProxyConnection(task.ChannelReconstructionTree,
		&fakeProxy{kind: task.KindReconstructionTree, value: explicit, valid: true})

	out, err = layer.Compute(context.Background(), testState())
	require.NoError(t, err)
	got := out.(*Output)
	assert.Same(t, explicit, got.Tree)
	assert.Equal(t, []string{"coastlines.gpml"}, got.Files)
	assert.Equal(t, "by_plate_id", got.Params["reconstruct_method"])
}

func TestRevisionTracksInputChanges(t *testing.T) {
	layer := NewReconstruct()
	f := fakeFile("coastlines.gpml")
	start := layer.Revision()

	layer.AddInputFileConnection(task.ChannelReconstructableFeatures, f)
	layer.ModifiedInputFile(task.ChannelReconstructableFeatures, f)
	assert.Equal(t, start+2, layer.Revision())

	layer.RemoveInputFileConnection(task.ChannelReconstructableFeatures, fakeFile("unknown"))
	assert.Equal(t, start+2, layer.Revision(), "removing an unknown file is a no-op")

	layer.Activate(false)
	assert.False(t, layer.IsActive())
}

func TestUpstreamSkipsInvalidOutputs(t *testing.T) {
	net := NewTopologyNetworkResolver()
	net.AddInputFileConnection(task.ChannelTopologicalNetworkFeatures, fakeFile("networks.gpml"))
	failed := &fakeProxy{kind: task.KindReconstruct}
	net.AddInputLayerProxyConnection(task.ChannelTopologicalSectionLayers, failed)

	_, err := net.Compute(context.Background(), testState())
	require.Error(t, err)

	ok := &fakeProxy{kind: task.KindTopologyGeometryResolver, value: "boundaries", valid: true}
	net.AddInputLayerProxyConnection(task.ChannelTopologicalSectionLayers, ok)
	out, err := net.Compute(context.Background(), testState())
	require.NoError(t, err)
	assert.Equal(t, []any{"boundaries"}, out.(*Output).Upstream[task.ChannelTopologicalSectionLayers])
}

func TestVelocityParams(t *testing.T) {
	layer := NewVelocityFieldCalculator()
	assert.True(t, layer.Params().GetAttr("delta_time").Equals(cty.NumberIntVal(1)).True())

	tests := []struct {
		name    string
		update  cty.Value
		wantErr string
	}{
		{
			name:   "partial update",
			update: cty.ObjectVal(map[string]cty.Value{"delta_time": cty.NumberFloatVal(5)}),
		},
		{
			name:    "non positive delta",
			update:  cty.ObjectVal(map[string]cty.Value{"delta_time": cty.NumberFloatVal(0)}),
			wantErr: "must be positive",
		},
		{
			name:    "unknown method",
			update:  cty.ObjectVal(map[string]cty.Value{"velocity_method": cty.StringVal("warp")}),
			wantErr: "is not one of",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := layer.SetParams(tc.update)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}

	delta, _ := layer.Params().GetAttr("delta_time").AsBigFloat().Float64()
	assert.Equal(t, 5.0, delta, "failed updates leave the parameters untouched")
	assert.Equal(t, "t_plus_delta_t_to_t", layer.Params().GetAttr("velocity_method").AsString())
}

func TestRasterRequiresRasterFile(t *testing.T) {
	layer := NewRaster()
	_, err := layer.Compute(context.Background(), testState())
	assert.ErrorIs(t, err, ErrNoRaster)

	layer.AddInputFileConnection(task.ChannelRasterFeature, fakeFile("agegrid.nc"))
	require.NoError(t, layer.SetParams(cty.ObjectVal(map[string]cty.Value{"band": cty.StringVal("age")})))
	out, err := layer.Compute(context.Background(), testState())
	require.NoError(t, err)
	assert.Equal(t, "age", out.(*Output).Params["band"])
}
