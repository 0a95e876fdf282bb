package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/recongraph/internal/app"
	"github.com/vk/recongraph/internal/registry"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	// Dir is the temporary directory the test files were written to.
	Dir string
}

// Configure adjusts the run configuration. dir is where the test files
// were written.
type Configure func(dir string, cfg *app.Config)

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, configure Configure, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, configure, modules...)
}

// RunIntegrationTestWithContext writes files into a fresh directory, loads
// that directory (unless configure says otherwise) and runs the app to
// completion.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, configure Configure, modules ...registry.Module) *HarnessResult {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	raw := app.Config{
		DataPaths: []string{dir},
		LogLevel:  "debug",
		LogFormat: "text",
	}
	if configure != nil {
		configure(dir, &raw)
	}
	cfg, err := app.NewConfig(raw)
	if err != nil {
		return &HarnessResult{Err: err, Dir: dir}
	}

	logBuffer := &app.SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("RECONGRAPH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, cfg, modules...)
	}()
	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
			Dir:       dir,
		}
	}

	runErr := testApp.Run(ctx)
	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
		Dir:       dir,
	}
}
