package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Timi2001/AI-Email-Assistant/internal/middleware"
	"github.com/Timi2001/AI-Email-Assistant/internal/models"
	"github.com/Timi2001/AI-Email-Assistant/internal/services"
)

type SessionHandler struct {
	composer *services.Composer
	registry *services.SessionRegistry
	tracker  services.StatusTracker
	tokens   *middleware.SessionTokens
}

func NewSessionHandler(composer *services.Composer, registry *services.SessionRegistry, tracker services.StatusTracker, tokens *middleware.SessionTokens) *SessionHandler {
	return &SessionHandler{composer: composer, registry: registry, tracker: tracker, tokens: tokens}
}

// Open starts a provider conversation and hands back its token.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	sess, err := h.composer.Open(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(sess.ID)
	if err != nil {
		sess.Close()
		handleServiceError(w, r, err)
		return
	}

	h.registry.Add(sess)
	slog.Info("session opened", "session", sess.ID)

	writeJSON(w, http.StatusCreated, models.SessionInfo{
		SessionID: sess.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// Discard closes the caller's session, cancelling any stream in flight.
func (h *SessionHandler) Discard(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	existed := h.registry.Remove(sessionID)
	if err := h.tracker.Forget(r.Context(), sessionID); err != nil {
		slog.Warn("failed to clear action status", "session", sessionID, "error", err)
	}
	if !existed {
		handleServiceError(w, r, services.ErrNoActiveSession)
		return
	}

	slog.Info("session discarded", "session", sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// Refresh keeps the caller's session alive and returns a fresh token for it.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	sess, err := h.registry.Get(sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(sess.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SessionInfo{
		SessionID: sess.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}
