package integration_tests

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/recongraph/internal/app"
	"github.com/vk/recongraph/internal/testutil"
)

func sessionRun(name string) testutil.Configure {
	return func(dir string, cfg *app.Config) {
		cfg.DataPaths = nil
		cfg.SessionPath = filepath.Join(dir, name)
	}
}

// Test for: malformed and inconsistent sessions stop the run.
func TestErrorHandling_InvalidSessionIsRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		session string
		wantErr string
	}{
		{
			name:    "syntax error",
			session: `layer "a" {`,
			wantErr: "failed to parse session",
		},
		{
			name:    "unknown kind",
			session: `layer "a" { kind = "plate_polygons" }`,
			wantErr: "unknown layer kind",
		},
		{
			name: "dangling connection",
			session: `
layer "a" { kind = "reconstruct" }
connection {
  target       = "a"
  channel      = "reconstruction_tree"
  source_layer = "missing"
}`,
			wantErr: "source layer 'missing' is not defined",
		},
		{
			name: "wrong source kind",
			session: `
layer "a" { kind = "reconstruct" }
layer "b" { kind = "reconstruct" }
connection {
  target       = "a"
  channel      = "reconstruction_tree"
  source_layer = "b"
}`,
			wantErr: "connection 0",
		},
		{
			name: "parameters out of range",
			session: `
layer "v" {
  kind   = "velocity_field_calculator"
  params = { delta_time = 0 }
}`,
			wantErr: "delta_time",
		},
		{
			name:    "missing file",
			session: `file "f" { path = "absent.rot" }`,
			wantErr: "absent.rot",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result := testutil.RunIntegrationTest(t, map[string]string{"session.hcl": tc.session}, sessionRun("session.hcl"))

			require.Error(t, result.Err)
			assert.Contains(t, result.Err.Error(), tc.wantErr)
		})
	}
}
