package config

import (
	"time"

	"ansanalytics/pkg/contracts"
)

// Application constants
const (
	AppName    = "ans-analytics"
	AppVersion = contracts.Version

	// Data sources published by ANS
	DefaultCrawlerBaseURL = "https://dadosabertos.ans.gov.br/FTP/PDA/"
	DefaultRegistryURL    = "https://dadosabertos.ans.gov.br/FTP/PDA/operadoras_de_plano_de_saude_ativas/Relatorio_cadop.csv"

	// Network timeouts
	DefaultRegistryTimeout = 2 * time.Minute
	DefaultCrawlerTimeout  = 5 * time.Minute

	// File paths (relative to the base directory)
	DefaultDownloadsDir  = "downloads"
	DefaultOutputDir     = "data/processed"
	DefaultLogsDir       = "logs"
	DefaultDetailFile    = "consolidado_despesas.csv"
	DefaultAggregateFile = "despesas_agregadas.csv"

	// Database
	DriverSQLite     = "sqlite"
	DriverPostgres   = "postgres"
	DefaultSQLiteDSN = "data/ans.db"

	// Telemetry exporters
	ExporterPrometheus = "prometheus"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	// Rate limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Log settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
