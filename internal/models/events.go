package models

import (
	"time"

	"github.com/google/uuid"
)

// WebSocket message types
const (
	WSTypeCompose      = "compose"
	WSTypeRefine       = "refine"
	WSTypeBuffer       = "buffer"
	WSTypeCompleted    = "completed"
	WSTypeError        = "error"
	WSTypeStatusUpdate = "status_update"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// BufferUpdate carries the whole display buffer after each fragment.
type BufferUpdate struct {
	Action    ActionType `json:"action"`
	Operation string     `json:"operation"` // "compose" | "refine"
	Text      string     `json:"text"`
	Fragments int        `json:"fragments"`
}

type CompletedEvent struct {
	Action    ActionType `json:"action"`
	Operation string     `json:"operation"`
	Text      string     `json:"text"`
}

type ErrorEvent struct {
	Action    ActionType `json:"action,omitempty"`
	Operation string     `json:"operation,omitempty"`
	ErrorCode string     `json:"code"`
	Message   string     `json:"message"`
}

// SessionInfo is returned when a session is opened.
type SessionInfo struct {
	SessionID uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
