package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/recongraph/internal/filestate"
	"github.com/vk/recongraph/internal/registry"
	"github.com/vk/recongraph/internal/task"
)

// brokenModule maps a file format to a kind nobody registered.
type brokenModule struct{}

func (brokenModule) Register(r *registry.Registry) {
	r.RegisterAutoLayer(filestate.FormatRotation, task.KindReconstructionTree)
}

func writeRotations(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rotations.rot")
	require.NoError(t, os.WriteFile(path, []byte("1 0.0 90.0 0.0 0.0 000 !\n"), 0o600))
	return path
}

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	runErr := run(out, []string{writeRotations(t)}, brokenModule{})

	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	assert.Contains(t, runErr.Error(), "application startup panicked")
	assert.Contains(t, runErr.Error(), "reconstruction_tree")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(&bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_Session(t *testing.T) {
	t.Parallel()

	rot := writeRotations(t)
	saved := filepath.Join(t.TempDir(), "session.yaml")
	out := &bytes.Buffer{}

	require.NoError(t, run(out, []string{rot, "--time", "10", "--save-session", saved}))

	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Contains(t, string(data), "reconstruction_tree")
	assert.Contains(t, string(data), rot)
}

func TestRun_InvalidSession(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte("layer \"a\" {\n"), 0o600))

	err := run(&bytes.Buffer{}, []string{"-s", path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse session")
}
