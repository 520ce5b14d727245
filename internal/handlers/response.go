package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Timi2001/AI-Email-Assistant/internal/models"
	"github.com/Timi2001/AI-Email-Assistant/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *services.ValidationError
		nerr *services.NotFoundError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", verr.Fields, r))
	case errors.As(err, &nerr):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", nerr.Message, r))
	case errors.Is(err, services.ErrNoActiveSession):
		writeJSON(w, http.StatusNotFound, errorResp("NO_ACTIVE_SESSION", "Session has expired or was discarded", r))
	case errors.Is(err, services.ErrProviderUnavailable):
		slog.Error("text provider unavailable", "error", err, "request_id", r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusServiceUnavailable, errorResp("PROVIDER_UNAVAILABLE", "The writing assistant is unavailable right now", r))
	default:
		slog.Error("unhandled service error", "error", err, "request_id", r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
