package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pashagolub/tourneysim/pkg/config"
	"github.com/pashagolub/tourneysim/pkg/journal"
	"github.com/pashagolub/tourneysim/pkg/logger"
	"github.com/pashagolub/tourneysim/pkg/sim"
	"github.com/pashagolub/tourneysim/pkg/tournament"
)

// Execute implements the Command interface for SimulateCommand
func (c *SimulateCommand) Execute(args []string) error {
	global := globalOptions(c.Global)
	if global.Version {
		return showVersion()
	}

	cfg, err := loadConfiguration(global.Config)
	if err != nil {
		return err
	}
	if err := applySimulateOverrides(cfg, c); err != nil {
		return &CLIError{
			Code:    ExitConfigError,
			Message: err.Error(),
			Suggestions: []string{
				"Use 'tourneysim simulate --help' to see accepted values",
			},
		}
	}
	if global.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return &CLIError{
			Code:    ExitConfigError,
			Message: fmt.Sprintf("Invalid configuration: %v", err),
		}
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stderr})
	if err != nil {
		return &CLIError{Code: ExitConfigError, Message: err.Error()}
	}

	settings, err := sim.SettingsFromConfig(cfg)
	if err != nil {
		return &CLIError{Code: ExitConfigError, Message: fmt.Sprintf("Invalid configuration: %v", err)}
	}

	registry := prometheus.NewRegistry()
	runner, err := sim.NewRunner(settings, log, sim.NewMetrics(registry))
	if err != nil {
		return &CLIError{
			Code:    ExitConfigError,
			Message: fmt.Sprintf("Cannot start simulation: %v", err),
			Details: map[string]interface{}{
				"format": string(settings.Format),
				"teams":  settings.Teams,
			},
			Suggestions: []string{
				"Knockout needs a power of three teams",
				"Swiss needs a multiple of three teams",
				"Custom needs at least nine teams",
			},
		}
	}

	if cfg.Metrics.Addr != "" {
		stop := serveMetrics(cfg.Metrics.Addr, registry, log)
		defer stop()
	}

	if len(cfg.Output.Formats) > 0 {
		if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
			return &CLIError{
				Code:    ExitFileError,
				Message: fmt.Sprintf("Failed to create output directory: %v", err),
				Details: map[string]interface{}{"directory": cfg.Output.Directory},
			}
		}
	}

	if cfg.Output.Has(config.OutputRunLog) {
		runLog, err := journal.OpenRunLog(filepath.Join(cfg.Output.Directory, journal.RunLogFile), runner.BatchID())
		if err != nil {
			return &CLIError{Code: ExitFileError, Message: fmt.Sprintf("Failed to open run log: %v", err)}
		}
		defer func() {
			if err := runLog.Close(); err != nil {
				log.Error("failed to close run log", slog.Any("error", err))
			}
		}()
		runner.Observe(func(r sim.Result) {
			if err := runLog.Append(r); err != nil {
				log.Error("failed to append run", slog.Int("run", r.Run), slog.Any("error", err))
			}
		})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	batch, runErr := runner.RunBatch(ctx)
	if len(batch.Results) > 0 {
		if err := writeOutputs(context.Background(), cfg, batch, log); err != nil {
			return &CLIError{
				Code:    ExitExportError,
				Message: fmt.Sprintf("Export failed: %v", err),
				Details: map[string]interface{}{
					"directory": cfg.Output.Directory,
					"formats":   cfg.Output.Formats,
				},
				Suggestions: []string{
					"Check output directory permissions",
					"Ensure sufficient disk space",
				},
			}
		}
		if !c.Quiet {
			if err := journal.NewExporter().Export(batch, stdout, journal.FormatText); err != nil {
				return err
			}
		}
	}

	if runErr != nil {
		return &CLIError{
			Code:    ExitSimulationError,
			Message: fmt.Sprintf("Simulation interrupted: %v", runErr),
			Details: map[string]interface{}{
				"batch":     batch.ID.String(),
				"completed": len(batch.Results),
				"requested": settings.Runs,
			},
		}
	}
	return nil
}

// applySimulateOverrides copies the flags that were given onto the configuration
func applySimulateOverrides(cfg *config.Config, c *SimulateCommand) error {
	if c.Runs != 0 {
		cfg.Simulation.Runs = c.Runs
	}
	if c.Workers != 0 {
		cfg.Simulation.Workers = c.Workers
	}
	if c.Seed != nil {
		cfg.Simulation.Seed = *c.Seed
	}
	if c.Teams != 0 {
		cfg.Simulation.Teams = c.Teams
	}
	if c.Format != "" {
		format, err := tournament.ParseFormat(c.Format)
		if err != nil {
			return err
		}
		cfg.Simulation.Format = string(format)
	}
	if c.SwissRounds != 0 {
		cfg.Simulation.SwissRounds = c.SwissRounds
	}
	if c.GroupSwissRounds != 0 {
		cfg.Simulation.GroupSwissRounds = c.GroupSwissRounds
	}
	if c.Model != "" {
		cfg.Skill.Model = c.Model
	}
	if c.Preset != "" {
		cfg.Ranking.Preset = c.Preset
		cfg.Ranking.Weights = nil
	}
	if c.OutputDir != "" {
		cfg.Output.Directory = c.OutputDir
	}
	if len(c.Outputs) > 0 {
		cfg.Output.Formats = c.Outputs
	}
	if c.MetricsAddr != "" {
		cfg.Metrics.Addr = c.MetricsAddr
	}
	return nil
}

// sqlitePath resolves the database path against the output directory
func sqlitePath(cfg *config.Config) string {
	if filepath.IsAbs(cfg.Output.SQLitePath) {
		return cfg.Output.SQLitePath
	}
	return filepath.Join(cfg.Output.Directory, cfg.Output.SQLitePath)
}

// writeOutputs writes the batch in every configured format. The run log is
// written while the batch runs and is not handled here.
func writeOutputs(ctx context.Context, cfg *config.Config, batch *sim.Batch, log *slog.Logger) error {
	exporter := journal.NewExporter()
	files := []struct {
		enabled bool
		name    string
		format  journal.ExportFormat
	}{
		{cfg.Output.Has(config.OutputCSV), journal.ResultsFile, journal.FormatCSV},
		{cfg.Output.Has(config.OutputCSV), journal.StandingsFile, journal.FormatStandings},
		{cfg.Output.Has(config.OutputJSON), journal.BatchFile, journal.FormatJSON},
		{cfg.Output.Has(config.OutputText), journal.ReportFile, journal.FormatText},
	}

	var errs []error
	for _, f := range files {
		if !f.enabled {
			continue
		}
		path := filepath.Join(cfg.Output.Directory, f.name)
		if err := exporter.ExportToFile(batch, path, f.format); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		log.Info("results written", slog.String("file", path), slog.String("format", string(f.format)))
	}

	if cfg.Output.Has(config.OutputSQLite) {
		path := sqlitePath(cfg)
		if err := saveToSQLite(ctx, path, batch); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		} else {
			log.Info("results stored", slog.String("database", path), slog.String("batch", batch.ID.String()))
		}
	}
	return errors.Join(errs...)
}

func saveToSQLite(ctx context.Context, path string, batch *sim.Batch) (err error) {
	store, err := journal.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()
	return store.SaveBatch(ctx, batch)
}

// serveMetrics exposes the registry until the returned stop function is called
func serveMetrics(addr string, registry *prometheus.Registry, log *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("serving metrics", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", slog.Any("error", err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warn("metrics server shutdown", slog.Any("error", err))
		}
	}
}
