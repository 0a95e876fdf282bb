package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/recongraph/internal/reconstruct"
	"github.com/vk/recongraph/internal/task"
)

// writeDataset creates one file of every supported format family.
func writeDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"rotations.rot":   "1 0.0 90.0 0.0 0.0 000 !\n",
		"coastlines.gpml": `<gpml:FeatureCollection><gpml:Coastline/></gpml:FeatureCollection>`,
		"networks.gpml":   `<gpml:FeatureCollection><gpml:TopologicalNetwork/></gpml:FeatureCollection>`,
		"agegrid.nc":      "CDF\x01",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func kindsOf(t *testing.T, g *reconstruct.Graph) []task.Kind {
	t.Helper()
	var kinds []task.Kind
	for _, ref := range g.Layers() {
		l, ok := ref.Get()
		require.True(t, ok)
		kinds = append(kinds, l.Kind())
	}
	return kinds
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "defaults", cfg: Config{DataPaths: []string{"."}}},
		{name: "nothing to load", cfg: Config{}, wantErr: "either a session or at least one data path"},
		{name: "bad level", cfg: Config{SessionPath: "s.hcl", LogLevel: "loud"}, wantErr: "invalid log level"},
		{name: "bad format", cfg: Config{SessionPath: "s.hcl", LogFormat: "xml"}, wantErr: "invalid log format"},
		{name: "negative step", cfg: Config{SessionPath: "s.hcl", TimeStep: -1}, wantErr: "time step"},
		{name: "bad exporter", cfg: Config{SessionPath: "s.hcl", TraceExporter: "zipkin"}, wantErr: "invalid trace exporter"},
		{name: "bad events url", cfg: Config{SessionPath: "s.hcl", EventsURL: "nowhere"}, wantErr: "invalid events URL"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "info", cfg.LogLevel)
			assert.Equal(t, "text", cfg.LogFormat)
		})
	}
}

func TestConfigTimes(t *testing.T) {
	assert.Equal(t, []float64{50}, (&Config{TimeStart: 50}).Times())
	assert.Equal(t, []float64{0, 10, 20}, (&Config{TimeEnd: 20, TimeStep: 10}).Times())
	assert.Equal(t, []float64{100, 75, 50}, (&Config{TimeStart: 100, TimeEnd: 40, TimeStep: 25}).Times())
	assert.Equal(t, []float64{0, 0.1, 0.2}, roundAll((&Config{TimeEnd: 0.2, TimeStep: 0.1}).Times()))
}

func roundAll(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = float64(int(v*1e6+0.5)) / 1e6
	}
	return out
}

func TestRun_AutoCreatesLayersAndSavesSession(t *testing.T) {
	dir := writeDataset(t)
	sessionPath := filepath.Join(t.TempDir(), "session.hcl")
	cfg, err := NewConfig(Config{
		DataPaths:       []string{dir},
		TimeEnd:         20,
		TimeStep:        10,
		AnchorPlateID:   701,
		SaveSessionPath: sessionPath,
	})
	require.NoError(t, err)

	a, logs := SetupAppTest(t, cfg)
	require.NoError(t, a.Run(context.Background()))

	g := a.Graph()
	assert.ElementsMatch(t, []task.Kind{
		task.KindReconstructionTree,
		task.KindReconstruct,
		task.KindTopologyNetworkResolver,
		task.KindRaster,
	}, kindsOf(t, g))
	_, ok := g.DefaultReconstructionTreeLayer()
	assert.True(t, ok, "the rotation layer becomes the default")

	results := a.Results()
	require.Len(t, results, 3)
	for i, want := range []float64{0, 10, 20} {
		assert.Equal(t, want, results[i].Time)
		assert.Empty(t, results[i].Failed)
		assert.Len(t, results[i].Computed, 4)
		assert.False(t, results[i].DefaultReconstructionTree.Identity)
		assert.Equal(t, uint64(701), results[i].DefaultReconstructionTree.AnchorPlateID)
	}
	assert.Equal(t, 4, a.Events().Count(reconstruct.LayerAdded))
	assert.Contains(t, logs.String(), `msg="Layer created for file."`)

	saved, err := os.ReadFile(sessionPath)
	require.NoError(t, err)
	assert.Contains(t, string(saved), `"topology_network_resolver"`)
	assert.Contains(t, string(saved), "default_layer")
}

func TestRun_RestoresSessionWithoutAutoLayers(t *testing.T) {
	dir := writeDataset(t)
	sessionPath := filepath.Join(t.TempDir(), "session.yaml")

	cfg, err := NewConfig(Config{DataPaths: []string{dir}, SaveSessionPath: sessionPath})
	require.NoError(t, err)
	first, _ := SetupAppTest(t, cfg)
	require.NoError(t, first.Run(context.Background()))

	cfg, err = NewConfig(Config{SessionPath: sessionPath, TimeStart: 30})
	require.NoError(t, err)
	second, _ := SetupAppTest(t, cfg)
	require.NoError(t, second.Run(context.Background()))

	assert.ElementsMatch(t, kindsOf(t, first.Graph()), kindsOf(t, second.Graph()))
	assert.Len(t, second.Graph().InputFiles(), 4)
	_, ok := second.Graph().DefaultReconstructionTreeLayer()
	assert.True(t, ok)

	results := second.Results()
	require.Len(t, results, 1)
	assert.Equal(t, 30.0, results[0].Time)
	assert.Empty(t, results[0].Failed)
}

func TestRun_MissingInput(t *testing.T) {
	cfg, err := NewConfig(Config{DataPaths: []string{filepath.Join(t.TempDir(), "absent.rot")}})
	require.NoError(t, err)
	a, _ := SetupAppTest(t, cfg)
	err = a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load input files")
}

func TestRun_WatchReupdatesOnChange(t *testing.T) {
	dir := writeDataset(t)
	cfg, err := NewConfig(Config{
		DataPaths:     []string{dir},
		TimeStart:     40,
		Watch:         true,
		WatchDebounce: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	a, logs := SetupAppTest(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "Watching input files for changes.")
	}, 5*time.Second, 10*time.Millisecond)

	path := filepath.Join(dir, "coastlines.gpml")
	require.NoError(t, os.WriteFile(path, []byte(`<gpml:FeatureCollection><gpml:Coastline/><gpml:Coastline/></gpml:FeatureCollection>`), 0o644))

	require.Eventually(t, func() bool {
		return len(a.Results()) >= 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, a.Events().Count(reconstruct.InputFileModified), 1)
	assert.Equal(t, 40.0, a.Results()[1].Time)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestHealthMux(t *testing.T) {
	cfg, err := NewConfig(Config{SessionPath: "unused.hcl"})
	require.NoError(t, err)
	a, _ := SetupAppTest(t, cfg)
	srv := httptest.NewServer(a.healthMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
