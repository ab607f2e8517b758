package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"ansanalytics/internal/shared/testutil"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthService_HealthCheck(t *testing.T) {
	svc := NewHealthService("1.2.3", pingFunc(func(context.Context) error { return nil }), nil)

	status := svc.HealthCheck(context.Background())
	assert.Equal(t, StatusHealthy, status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.Equal(t, StatusHealthy, status.Services["database"].Status)
	assert.Equal(t, "1.2.3", svc.Version())
}

func TestHealthService_DatabaseDown(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	svc := NewHealthService("1.2.3", pingFunc(func(context.Context) error { return errors.New("database is locked") }), logger)

	status := svc.HealthCheck(context.Background())
	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.Equal(t, "database is locked", status.Services["database"].Message)
	assert.True(t, logs.ContainsMessage("database health check failed"))
}

func TestHealthService_NoDatabase(t *testing.T) {
	status := NewHealthService("1.2.3", nil, nil).HealthCheck(context.Background())
	assert.Equal(t, StatusUnhealthy, status.Status)
}
