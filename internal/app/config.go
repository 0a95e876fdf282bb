package app

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"slices"
	"time"

	"github.com/vk/recongraph/internal/telemetry"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// DataPaths are input files or directories loaded at startup.
	DataPaths []string
	// SessionPath restores a saved session before DataPaths are loaded.
	SessionPath string
	// SaveSessionPath, when set, receives the session after the run.
	SaveSessionPath string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	// TimeStart, TimeEnd and TimeStep describe the reconstruction times, in
	// Ma, updated in order. A zero TimeStep updates TimeStart only.
	TimeStart     float64
	TimeEnd       float64
	TimeStep      float64
	AnchorPlateID uint64

	// Watch keeps the process running and re-updates when input files change.
	Watch         bool
	WatchDebounce time.Duration

	TraceExporter string
	OTLPEndpoint  string

	// EventsURL is the socket.io server receiving graph events, if any.
	EventsURL       string
	EventsNamespace string
}

var (
	logLevels      = []string{"debug", "info", "warn", "error"}
	logFormats     = []string{"text", "json"}
	traceExporters = []string{"", telemetry.ExporterNone, telemetry.ExporterStdout, telemetry.ExporterOTLP}
)

func NewConfig(cfg Config) (*Config, error) {
	if cfg.SessionPath == "" && len(cfg.DataPaths) == 0 {
		return nil, errors.New("either a session or at least one data path is required")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if !slices.Contains(logLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log level %q (must be one of %v)", cfg.LogLevel, logLevels)
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log format %q (must be one of %v)", cfg.LogFormat, logFormats)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid health check port %d", cfg.HealthcheckPort)
	}
	if cfg.TimeStep < 0 {
		return nil, fmt.Errorf("time step must not be negative, got %g", cfg.TimeStep)
	}
	if cfg.TimeStart < 0 || cfg.TimeEnd < 0 {
		return nil, errors.New("reconstruction times must not be negative")
	}
	if !slices.Contains(traceExporters, cfg.TraceExporter) {
		return nil, fmt.Errorf("invalid trace exporter %q", cfg.TraceExporter)
	}
	if cfg.EventsURL != "" {
		u, err := url.Parse(cfg.EventsURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid events URL %q", cfg.EventsURL)
		}
	}
	return &cfg, nil
}

// Times lists the reconstruction times to update, from TimeStart towards
// TimeEnd. TimeEnd is included when it falls on a step.
func (c *Config) Times() []float64 {
	if c.TimeStep == 0 || c.TimeStart == c.TimeEnd {
		return []float64{c.TimeStart}
	}
	dir := 1.0
	if c.TimeEnd < c.TimeStart {
		dir = -1
	}
	n := int(math.Floor(math.Abs(c.TimeEnd-c.TimeStart)/c.TimeStep + 1e-9))
	times := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		times = append(times, c.TimeStart+dir*float64(i)*c.TimeStep)
	}
	return times
}
