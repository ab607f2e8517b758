package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ansanalytics/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"context deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"validation api error", NewValidationErrors([]ValidationError{{Field: "limit", Message: "must be between 1 and 100"}}), http.StatusBadRequest, TypeValidation},
		{"operator not found", ErrOperatorNotFound, http.StatusNotFound, TypeOperatorNotFound},
		{"wrapped api error", fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound, TypeNotFound},
		{"storage app error", NewStorageError("query failed", errors.New("db closed")), http.StatusServiceUnavailable, TypeDataUnavailable},
		{"not found app error", NewNotFoundError("operator"), http.StatusNotFound, TypeNotFound},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/operadoras/1", nil)
			rec := httptest.NewRecorder()
			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/operadoras/1", body["instance"])
			assert.Contains(t, body, "trace_id")
			assert.NotContains(t, body, "stack")
			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, logs.Count())
	assert.Empty(t, rec.Body.String())
}

func TestErrorHandler_StorageCauseNotLeaked(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/api/estatisticas", nil),
		NewStorageError("query failed", errors.New("password=secret")))

	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestErrorHandler_ValidationDetails(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/api/operadoras?limit=0", nil),
		NewValidationErrors([]ValidationError{{Field: "limit", Message: "must be between 1 and 100"}}))

	body := decodeProblem(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
	details, ok := body["details"].([]interface{})
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, "limit", details[0].(map[string]interface{})["field"])
	// stack traces are only attached to server errors
	assert.NotContains(t, body, "stack")
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "request failed")
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	RecoveryMiddleware(h)(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, "kaboom", body["panic"])
	testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/operadoras", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "DELETE")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	p := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "").
		WithExtension("trace_id", "abc").
		WithExtension("status", "ignored")

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, float64(404), body["status"], "standard members win over extensions")
	assert.Equal(t, "abc", body["trace_id"])
	assert.NotContains(t, body, "detail")
	assert.NotContains(t, body, "instance")
}
