package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/markethub/review-service/internal/domain"
	"github.com/markethub/review-service/internal/platform/logger"
	"github.com/markethub/review-service/internal/platform/metrics"
)

// response is the JSON envelope shared by both API surfaces.
type response struct {
	Data  any            `json:"data,omitempty"`
	Error *errorResponse `json:"error,omitempty"`
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeDomainError maps a domain error kind to an HTTP status and error
// code. Unknown errors become a generic internal failure; the underlying
// cause stays in the logs, not the response.
func writeDomainError(w http.ResponseWriter, r *http.Request, m *metrics.Manager, log *logger.Logger, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, domain.ErrForbidden):
		status, code = http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	default:
		status, code = http.StatusInternalServerError, "INTERNAL"
	}

	countError(r, m, code)

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("Request failed with internal error", zap.String("path", r.URL.Path), zap.Error(err))
		message = "internal server error"
	}

	writeJSON(w, status, response{Error: &errorResponse{Code: code, Message: message}})
}

// writeValidationError renders validator.v10 failures as a field map.
func writeValidationError(w http.ResponseWriter, r *http.Request, m *metrics.Manager, err error) {
	countError(r, m, "INVALID_INPUT")

	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = "failed on '" + fe.Tag() + "' validation"
		}
	}
	writeJSON(w, http.StatusBadRequest, response{Error: &errorResponse{
		Code:    "INVALID_INPUT",
		Message: "request validation failed",
		Fields:  fields,
	}})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, m *metrics.Manager, message string) {
	countError(r, m, "INVALID_INPUT")
	writeJSON(w, http.StatusBadRequest, response{Error: &errorResponse{Code: "INVALID_INPUT", Message: message}})
}

func writeForbidden(w http.ResponseWriter, r *http.Request, m *metrics.Manager, message string) {
	countError(r, m, "FORBIDDEN")
	writeJSON(w, http.StatusForbidden, response{Error: &errorResponse{Code: "FORBIDDEN", Message: message}})
}

func writeNotFound(w http.ResponseWriter, r *http.Request, m *metrics.Manager, message string) {
	countError(r, m, "NOT_FOUND")
	writeJSON(w, http.StatusNotFound, response{Error: &errorResponse{Code: "NOT_FOUND", Message: message}})
}

func countError(r *http.Request, m *metrics.Manager, code string) {
	if m == nil {
		return
	}
	route := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		route = rctx.RoutePattern()
	}
	m.APIErrorsTotal.WithLabelValues(route, code).Inc()
}
