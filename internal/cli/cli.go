package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vk/recongraph/internal/app"
	"github.com/vk/recongraph/internal/filestate"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const longHelp = `recongraph loads plate reconstruction inputs into a layer graph and
updates every layer, in dependency order, for each reconstruction time.

Arguments:
  DATA_PATH
    Input files or directories. Directories are searched for files with a
    supported extension: %s.

Layers are created automatically for every loaded file, and the first
rotation file becomes the default reconstruction tree. A saved session
(--session) restores layers, connections and parameters instead.`

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var cfg app.Config
	ran := false
	cmd := &cobra.Command{
		Use:           "recongraph [flags] [DATA_PATH...]",
		Short:         "Dependency-ordered layer graph for plate reconstructions.",
		Long:          fmt.Sprintf(longHelp, strings.Join(filestate.SupportedExtensions(), " ")),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, positional []string) error {
			cfg.DataPaths = positional
			ran = true
			return nil
		},
	}
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	f := cmd.Flags()
	f.StringVarP(&cfg.SessionPath, "session", "s", "", "Session file (.hcl, .yaml) to restore before loading data paths.")
	f.StringVar(&cfg.SaveSessionPath, "save-session", "", "Write the session to this file (.hcl, .yaml) after the run.")
	f.Float64Var(&cfg.TimeStart, "time", 0, "Reconstruction time in Ma, or the first time of a range.")
	f.Float64Var(&cfg.TimeEnd, "time-end", 0, "Last reconstruction time of a range in Ma.")
	f.Float64Var(&cfg.TimeStep, "time-step", 0, "Step between reconstruction times in Ma. 0 updates --time only.")
	f.Uint64Var(&cfg.AnchorPlateID, "anchor", 0, "Anchor plate id.")
	f.BoolVarP(&cfg.Watch, "watch", "w", false, "Keep running and re-update when input files change.")
	f.DurationVar(&cfg.WatchDebounce, "watch-debounce", filestate.DefaultDebounceWindow, "Quiet period before changed files are reloaded.")
	f.StringVar(&cfg.LogLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	f.StringVar(&cfg.LogFormat, "log-format", "json", "Log output format. Options: 'text' or 'json'.")
	f.IntVar(&cfg.HealthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	f.StringVar(&cfg.TraceExporter, "trace-exporter", "none", "Trace exporter. Options: 'none', 'stdout', 'otlp'.")
	f.StringVar(&cfg.OTLPEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint for the otlp trace exporter.")
	f.StringVar(&cfg.EventsURL, "events-url", "", "socket.io server that receives graph events.")
	f.StringVar(&cfg.EventsNamespace, "events-namespace", "/", "socket.io namespace for graph events.")

	if err := cmd.Execute(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if !ran {
		// Help was requested and printed.
		return nil, true, nil
	}
	slog.Debug("Arguments parsed successfully.")

	if cfg.SessionPath == "" && len(cfg.DataPaths) == 0 {
		slog.Debug("No inputs provided, printing usage and exiting.")
		_ = cmd.Usage()
		return nil, true, nil
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if !cmd.Flags().Changed("time-end") {
		cfg.TimeEnd = cfg.TimeStart
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
