package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ansanalytics/internal/config"
	apperrors "ansanalytics/internal/errors"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// Store wraps the database handle shared by the loader and the API
type Store struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// Open connects to the configured database and creates missing tables
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if err := ensureSQLiteDir(cfg.DSN); err != nil {
			return nil, apperrors.NewStorageError("failed to create database directory", err)
		}
	case config.DriverPostgres:
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported database driver: %q", cfg.Driver), nil)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open database", err)
	}
	if cfg.Driver == config.DriverSQLite {
		// one connection keeps ":memory:" databases shared and serializes writes
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("failed to connect to database", err)
	}

	s := New(db, cfg.Driver, logger)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing handle. Migrate is not run.
func New(db *sql.DB, driver string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     db,
		driver: driver,
		logger: logger.With(slog.String("component", "storage")),
	}
}

// Migrate creates the tables and indexes that do not exist yet
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return apperrors.NewStorageError("failed to create schema", err)
		}
	}
	s.logger.DebugContext(ctx, "schema ready", slog.String("driver", s.driver))
	return nil
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the driver name
func (s *Store) Driver() string {
	return s.driver
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites '?' placeholders to "$n" for Postgres
func (s *Store) rebind(query string) string {
	if s.driver != config.DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func ensureSQLiteDir(dsn string) error {
	if dsn == "" || strings.HasPrefix(dsn, ":memory:") || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
