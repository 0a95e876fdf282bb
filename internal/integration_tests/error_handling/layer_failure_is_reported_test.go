package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/recongraph/internal/layers"
	"github.com/vk/recongraph/internal/task"
	"github.com/vk/recongraph/internal/testutil"
)

// Test for: a failing layer does not stop the cycle or the run.
func TestErrorHandling_LayerFailureIsReported(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The raster layer has no raster_feature input and cannot compute.
	files := map[string]string{
		"rotations.rot":   testutil.RotationFile,
		"coastlines.gpml": testutil.CoastlinesFile,
		"session.hcl": `
file "coast" { path = "coastlines.gpml" }
layer "coastlines" { kind = "reconstruct" }
layer "shaded" { kind = "raster" }
connection {
  target      = "coastlines"
  channel     = "reconstructable_features"
  source_file = "coast"
}
connection {
  target       = "shaded"
  channel      = "reconstructed_polygons"
  source_layer = "coastlines"
}
`,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, sessionRun("session.hcl"))

	// --- Assert ---
	res := testutil.LastResult(t, result)
	assert.Equal(t, []task.Kind{task.KindReconstruct}, testutil.ComputedKinds(t, res))
	require.Len(t, res.Failed, 1)
	for _, err := range res.Failed {
		assert.ErrorIs(t, err, layers.ErrNoRaster)
	}
	assert.Contains(t, result.LogOutput, "Update finished with failed layers.")
}
