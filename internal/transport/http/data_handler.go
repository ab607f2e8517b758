package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "ansanalytics/internal/errors"
	"ansanalytics/internal/middleware"
	"ansanalytics/internal/services"
)

// OperatorQuery holds the listing parameters
type OperatorQuery struct {
	Page   int    `query:"page" validate:"gte=1,lte=1000000"`
	Limit  int    `query:"limit" validate:"gte=1,lte=100"`
	Search string `query:"search" validate:"max=200"`
}

// DataHandler serves operators, expense history and statistics
type DataHandler struct {
	service      DataServiceInterface
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		validator:    middleware.NewValidator(),
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes, mounted under /api
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/operadoras", h.ListOperators)
	r.Route("/operadoras/{cnpj}", func(r chi.Router) {
		r.Get("/", h.GetOperator)
		r.Get("/despesas", h.ExpenseHistory)
	})
	r.Get("/estatisticas", h.Statistics)

	return r
}

// ListOperators handles GET /api/operadoras
func (h *DataHandler) ListOperators(w http.ResponseWriter, r *http.Request) {
	query, err := h.parseOperatorQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	page, err := h.service.ListOperators(r.Context(), query.Page, query.Limit, query.Search)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, page)
}

// GetOperator handles GET /api/operadoras/{cnpj}
func (h *DataHandler) GetOperator(w http.ResponseWriter, r *http.Request) {
	op, err := h.service.GetOperator(r.Context(), chi.URLParam(r, "cnpj"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, op)
}

// ExpenseHistory handles GET /api/operadoras/{cnpj}/despesas
func (h *DataHandler) ExpenseHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ExpenseHistory(r.Context(), chi.URLParam(r, "cnpj"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, entries)
}

// Statistics handles GET /api/estatisticas
func (h *DataHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, stats)
}

// parseOperatorQuery reads page, limit and search, applying the defaults
// for absent values.
func (h *DataHandler) parseOperatorQuery(r *http.Request) (OperatorQuery, error) {
	values := r.URL.Query()
	query := OperatorQuery{
		Page:   services.DefaultPage,
		Limit:  services.DefaultLimit,
		Search: values.Get("search"),
	}

	var invalid []apierrors.ValidationError
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"page", &query.Page},
		{"limit", &query.Limit},
	} {
		raw := values.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			invalid = append(invalid, apierrors.ValidationError{Field: p.name, Message: p.name + " must be a valid integer"})
			continue
		}
		*p.dst = n
	}
	if len(invalid) > 0 {
		return query, apierrors.NewValidationErrors(invalid)
	}

	if err := h.validator.ValidateStruct(query); err != nil {
		return query, err
	}
	return query, nil
}

func (h *DataHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrOperatorNotFound):
		h.errorHandler.HandleError(w, r, apierrors.ErrOperatorNotFound)
	case errors.Is(err, services.ErrInvalidInput):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest, apierrors.CodeValidationFailed, "Request validation failed", err.Error()))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
