package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"ansanalytics/internal/config"
	"ansanalytics/internal/infrastructure"
	"ansanalytics/pkg/contracts"
)

// Runtime is the process-wide setup shared by the commands
type Runtime struct {
	Config  *config.Config
	Paths   *config.Paths
	Logger  *slog.Logger
	OTel    *infrastructure.OTelProviders
	Metrics *infrastructure.PipelineMetrics
}

// Bootstrap loads configuration, resolves and creates the working
// directories, then initializes logging and telemetry. logName names the
// command's log file under the logs directory when the configured path is
// relative.
func Bootstrap(configFile, logName string) (*Runtime, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	paths, err := config.GetPaths(cfg)
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	if logName != "" && !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = paths.GetLogPath(logName)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("starting", slog.String("version", contracts.GetVersionString()))
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewPipelineMetrics(providers.Meter)
	if err != nil {
		_ = providers.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	return &Runtime{
		Config:  cfg,
		Paths:   paths,
		Logger:  logger,
		OTel:    providers,
		Metrics: metrics,
	}, nil
}

// Close flushes telemetry and closes the log file
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.OTel != nil {
		if err := r.OTel.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
