package integration_tests

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/recongraph/internal/cli"
)

// Test for: displays help
func TestCLI_DisplaysHelp_WhenNoInputIsProvided(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	outW := &bytes.Buffer{}

	// --- Act ---
	appConfig, shouldExit, err := cli.Parse([]string{}, outW)

	// --- Assert ---
	require.NoError(t, err)
	assert.True(t, shouldExit, "cli.Parse() should have indicated an exit")
	assert.Contains(t, outW.String(), "Usage:")
	assert.Contains(t, outW.String(), "--session")
	assert.Nil(t, appConfig, "no config is returned when displaying help")
}
