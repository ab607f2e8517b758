package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment override (ANS_PIPELINE_OUTPUT_DIR, ...).
const EnvPrefix = "ANS"

// Config represents the complete application configuration
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Registry  RegistryConfig  `yaml:"registry" envconfig:"REGISTRY"`
	Crawler   CrawlerConfig   `yaml:"crawler" envconfig:"CRAWLER"`
	Database  DatabaseConfig  `yaml:"database" envconfig:"DATABASE"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// PipelineConfig drives the extract/normalize/join/aggregate/write run
type PipelineConfig struct {
	BaseDir       string   `yaml:"base_dir" envconfig:"BASE_DIR"`
	DownloadsDir  string   `yaml:"downloads_dir" envconfig:"DOWNLOADS_DIR"`
	OutputDir     string   `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	DetailFile    string   `yaml:"detail_file" envconfig:"DETAIL_FILE"`
	AggregateFile string   `yaml:"aggregate_file" envconfig:"AGGREGATE_FILE"`
	FilterTerms   []string `yaml:"filter_terms" envconfig:"FILTER_TERMS"`
	Delimiter     string   `yaml:"delimiter" envconfig:"DELIMITER"`
}

// RegistryConfig points at the CADOP operator registry
type RegistryConfig struct {
	URL     string        `yaml:"url" envconfig:"URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// CrawlerConfig describes how the disclosure archives are discovered
type CrawlerConfig struct {
	BaseURL       string        `yaml:"base_url" envconfig:"BASE_URL"`
	SectionSuffix string        `yaml:"section_suffix" envconfig:"SECTION_SUFFIX"`
	YearSuffix    string        `yaml:"year_suffix" envconfig:"YEAR_SUFFIX"`
	FileSuffix    string        `yaml:"file_suffix" envconfig:"FILE_SUFFIX"`
	Concurrency   int           `yaml:"concurrency" envconfig:"CONCURRENCY"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// DatabaseConfig selects the relational store used by the loader and the API
type DatabaseConfig struct {
	Driver string `yaml:"driver" envconfig:"DRIVER"`
	DSN    string `yaml:"dsn" envconfig:"DSN"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// TelemetryConfig selects the OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName     string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	MetricsExporter string `yaml:"metrics_exporter" envconfig:"METRICS_EXPORTER"`
	TracesExporter  string `yaml:"traces_exporter" envconfig:"TRACES_EXPORTER"`
}

// Load builds the configuration in three layers: defaults, the YAML file
// (explicit path, or the first file found in the usual locations) and
// ANS_* environment variables. Later layers win.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg. Keys absent from the file
// keep their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// normalize trims list values that came from comma-separated env vars
func (c *Config) normalize() {
	terms := c.Pipeline.FilterTerms[:0]
	for _, term := range c.Pipeline.FilterTerms {
		if term = strings.TrimSpace(term); term != "" {
			terms = append(terms, term)
		}
	}
	c.Pipeline.FilterTerms = terms

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Telemetry.MetricsExporter = strings.ToLower(c.Telemetry.MetricsExporter)
	c.Telemetry.TracesExporter = strings.ToLower(c.Telemetry.TracesExporter)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Pipeline.DownloadsDir == "" {
		return fmt.Errorf("pipeline downloads directory must be set")
	}
	if c.Pipeline.OutputDir == "" {
		return fmt.Errorf("pipeline output directory must be set")
	}
	if c.Pipeline.DetailFile == "" || c.Pipeline.AggregateFile == "" {
		return fmt.Errorf("pipeline output file names must be set")
	}
	if len(c.Pipeline.FilterTerms) == 0 {
		return fmt.Errorf("at least one filter term must be specified")
	}
	if len([]rune(c.Pipeline.Delimiter)) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Pipeline.Delimiter)
	}

	if c.Registry.URL == "" {
		return fmt.Errorf("registry URL must be set")
	}
	if c.Registry.Timeout < 0 {
		return fmt.Errorf("registry timeout must not be negative")
	}

	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler concurrency must be positive, got %d", c.Crawler.Concurrency)
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN must be set")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}
	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	// JSON is the only supported log format
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	switch c.Telemetry.MetricsExporter {
	case ExporterPrometheus, ExporterNone:
	default:
		return fmt.Errorf("unsupported metrics exporter: %q", c.Telemetry.MetricsExporter)
	}
	switch c.Telemetry.TracesExporter {
	case ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("unsupported traces exporter: %q", c.Telemetry.TracesExporter)
	}

	return nil
}

// Delimiter returns the configured CSV delimiter as a rune
func (c *Config) Delimiter() rune {
	return []rune(c.Pipeline.Delimiter)[0]
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			DownloadsDir:  DefaultDownloadsDir,
			OutputDir:     DefaultOutputDir,
			DetailFile:    DefaultDetailFile,
			AggregateFile: DefaultAggregateFile,
			FilterTerms:   []string{"even", "sin"},
			Delimiter:     ";",
		},
		Registry: RegistryConfig{
			URL:     DefaultRegistryURL,
			Timeout: DefaultRegistryTimeout,
		},
		Crawler: CrawlerConfig{
			BaseURL:       DefaultCrawlerBaseURL,
			SectionSuffix: "contabeis/",
			YearSuffix:    "2025/",
			FileSuffix:    ".zip",
			Concurrency:   1,
			Timeout:       DefaultCrawlerTimeout,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    DefaultSQLiteDSN,
		},
		Server: ServerConfig{
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:     AppName,
			MetricsExporter: ExporterPrometheus,
			TracesExporter:  ExporterNone,
		},
	}
}
