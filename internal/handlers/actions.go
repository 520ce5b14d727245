package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Timi2001/AI-Email-Assistant/internal/middleware"
	"github.com/Timi2001/AI-Email-Assistant/internal/models"
	"github.com/Timi2001/AI-Email-Assistant/internal/services"
)

type ActionHandler struct {
	runner   *services.ActionRunner
	registry *services.SessionRegistry
}

func NewActionHandler(runner *services.ActionRunner, registry *services.SessionRegistry) *ActionHandler {
	return &ActionHandler{runner: runner, registry: registry}
}

// Run executes the one-shot action named by the {action} path segment.
// A failed action still answers 200; its apology is in the result.
func (h *ActionHandler) Run(w http.ResponseWriter, r *http.Request) {
	action, ok := models.ParseActionSlug(chi.URLParam(r, "action"))
	if !ok {
		handleServiceError(w, r, &services.NotFoundError{Message: "Unknown action"})
		return
	}

	sessionID := middleware.GetSessionID(r.Context())
	if _, err := h.registry.Get(sessionID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	req := services.ActionRequest{Action: action}
	if action.TakesText() {
		var body models.TextInput
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
			return
		}
		req.Text = body.Text
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req.Inputs); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
			return
		}
	}

	result, err := h.runner.Run(r.Context(), sessionID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Status returns the loading/error slot of every action for the session.
func (h *ActionHandler) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	if _, err := h.registry.Get(sessionID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	statuses, err := h.runner.Status(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"statuses": statuses,
	})
}
