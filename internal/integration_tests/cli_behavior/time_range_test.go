package integration_tests

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/recongraph/internal/app"
	"github.com/vk/recongraph/internal/cli"
	"github.com/vk/recongraph/internal/testutil"
)

// Test for: a time range on the command line runs one cycle per step.
func TestCLI_TimeRange_RunsOneCyclePerStep(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	rot := filepath.Join(dir, "rotations.rot")
	require.NoError(t, os.WriteFile(rot, []byte(testutil.RotationFile), 0o644))

	cfg, shouldExit, err := cli.Parse([]string{
		rot, "--time", "30", "--time-end", "0", "--time-step", "15", "--anchor", "701", "--log-format", "text",
	}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, shouldExit)

	// --- Act ---
	a, _ := app.SetupAppTest(t, cfg)
	require.NoError(t, a.Run(context.Background()))

	// --- Assert ---
	results := a.Results()
	require.Len(t, results, 3)
	for i, want := range []float64{30, 15, 0} {
		assert.Equal(t, want, results[i].Time)
		assert.Equal(t, uint64(701), results[i].AnchorPlateID)
	}
}
