package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// Health states
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	database  Pinger
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Uptime    string                   `json:"uptime"`
	Services  map[string]ServiceHealth `json:"services"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version string, database Pinger, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		database:  database,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck pings the database and reports overall health
func (s *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Services:  make(map[string]ServiceHealth),
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}

	db := ServiceHealth{Status: StatusHealthy}
	if s.database == nil {
		db = ServiceHealth{Status: StatusUnhealthy, Message: "database not configured"}
	} else if err := s.database.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "database health check failed", slog.String("error", err.Error()))
		db = ServiceHealth{Status: StatusUnhealthy, Message: err.Error()}
	}
	status.Services["database"] = db

	if db.Status != StatusHealthy {
		status.Status = StatusUnhealthy
	}
	return status
}

// Version returns the service version
func (s *HealthService) Version() string {
	return s.version
}
