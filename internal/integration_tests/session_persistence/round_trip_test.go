package integration_tests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/recongraph/internal/app"
	"github.com/vk/recongraph/internal/reconstruct"
	"github.com/vk/recongraph/internal/session"
	"github.com/vk/recongraph/internal/testutil"
)

// Test for: a saved session restores the same graph in both formats.
func TestSessionPersistence_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{".hcl", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			saved := filepath.Join(t.TempDir(), "session"+ext)
			first := testutil.RunIntegrationTest(t, testutil.Dataset(), func(_ string, cfg *app.Config) {
				cfg.SaveSessionPath = saved
			})
			require.NoError(t, first.Err)

			// --- Act ---
			second := testutil.RunIntegrationTest(t, nil, func(_ string, cfg *app.Config) {
				cfg.DataPaths = nil
				cfg.SessionPath = saved
			})

			// --- Assert ---
			res := testutil.LastResult(t, second)
			assert.Empty(t, res.Failed)
			assert.ElementsMatch(t,
				testutil.ComputedKinds(t, testutil.LastResult(t, first)),
				testutil.ComputedKinds(t, res))
			assert.Equal(t, 1, second.App.Events().Count(reconstruct.DefaultLayerChanged),
				"the default is restored once")

			m, err := session.Load(saved)
			require.NoError(t, err)
			assert.Len(t, m.Files, 5)
			assert.Len(t, m.Layers, 5)
			assert.Len(t, m.Connections, 5)
		})
	}
}

// Test for: an inactive layer is skipped and stays inactive after a save.
func TestSessionPersistence_InactiveLayer(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"rotations.rot": testutil.RotationFile,
		"session.yaml": `
files:
  - id: rot
    path: rotations.rot
layers:
  - id: tree
    kind: reconstruction_tree
    active: false
connections:
  - target: tree
    channel: reconstruction_features
    source_file: rot
`,
	}
	resaved := filepath.Join(t.TempDir(), "again.hcl")

	result := testutil.RunIntegrationTest(t, files, func(dir string, cfg *app.Config) {
		cfg.DataPaths = nil
		cfg.SessionPath = filepath.Join(dir, "session.yaml")
		cfg.SaveSessionPath = resaved
	})

	res := testutil.LastResult(t, result)
	assert.Empty(t, res.Computed)
	assert.Len(t, res.Skipped, 1)
	assert.True(t, res.DefaultReconstructionTree.Identity)

	data, err := os.ReadFile(resaved)
	require.NoError(t, err)
	m, err := session.DecodeHCL(data, resaved)
	require.NoError(t, err)
	require.Len(t, m.Layers, 1)
	assert.False(t, m.Layers[0].Active)
}
