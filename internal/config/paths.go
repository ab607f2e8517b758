package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for every file the pipeline reads or writes
type Paths struct {
	BaseDir      string
	DownloadsDir string
	OutputDir    string
	LogsDir      string

	// Well-known output files
	DetailCSV    string
	AggregateCSV string
}

// GetPaths resolves the configured pipeline paths. Relative entries are
// joined to Pipeline.BaseDir, which defaults to the current working directory.
func GetPaths(cfg *Config) (*Paths, error) {
	if cfg == nil {
		cfg = Default()
	}

	baseDir := cfg.Pipeline.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		baseDir = wd
	}
	baseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(baseDir, p)
	}

	outputDir := resolve(cfg.Pipeline.OutputDir)

	return &Paths{
		BaseDir:      baseDir,
		DownloadsDir: resolve(cfg.Pipeline.DownloadsDir),
		OutputDir:    outputDir,
		LogsDir:      resolve(DefaultLogsDir),
		DetailCSV:    filepath.Join(outputDir, cfg.Pipeline.DetailFile),
		AggregateCSV: filepath.Join(outputDir, cfg.Pipeline.AggregateFile),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DownloadsDir,
		p.OutputDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// GetDownloadPath returns the path for a downloaded archive
func (p *Paths) GetDownloadPath(filename string) string {
	return filepath.Join(p.DownloadsDir, filename)
}

// GetOutputPath returns the path for a file in the output directory
func (p *Paths) GetOutputPath(filename string) string {
	return filepath.Join(p.OutputDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("downloads", p.DownloadsDir),
			slog.String("output", p.OutputDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("output_files",
			slog.String("detail_csv", p.DetailCSV),
			slog.String("aggregate_csv", p.AggregateCSV),
		))
}
