package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Timi2001/AI-Email-Assistant/internal/middleware"
	"github.com/Timi2001/AI-Email-Assistant/internal/models"
	"github.com/Timi2001/AI-Email-Assistant/internal/services"
	"github.com/Timi2001/AI-Email-Assistant/internal/stream"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// inbound is a client message whose payload is decoded once its type is known.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// client is one socket. gorilla allows a single concurrent writer, so every
// write goes through send.
type client struct {
	conn      *websocket.Conn
	sessionID uuid.UUID
	writeMu   sync.Mutex
}

func (c *client) send(msgType string, payload interface{}) error {
	data, err := json.Marshal(models.WSMessage{Type: msgType, Payload: payload})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// activeStream is the compose/refine stream currently rendering for a session.
type activeStream struct {
	cancel context.CancelFunc
}

// Hub serves the streamed compose/refine flow and pushes action status
// changes to every socket of a session.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*client
	cancelFuncs map[uuid.UUID]context.CancelFunc
	streams     map[uuid.UUID]*activeStream

	composer *services.Composer
	registry *services.SessionRegistry
	tracker  services.StatusTracker
	tokens   *middleware.SessionTokens
}

func NewHub(composer *services.Composer, registry *services.SessionRegistry, tracker services.StatusTracker, tokens *middleware.SessionTokens) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*client),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
		streams:     make(map[uuid.UUID]*activeStream),
		composer:    composer,
		registry:    registry,
		tracker:     tracker,
		tokens:      tokens,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sessionID, err := h.tokens.Parse(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if _, err := h.registry.Get(sessionID); err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := &client{conn: conn, sessionID: sessionID}
	h.registerConnection(c)

	go h.readLoop(c)
}

// readLoop handles client messages until the socket closes. Closing the
// socket cancels whatever stream it started.
func (h *Hub) readLoop(c *client) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		h.unregisterConnection(c)
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read failed", "session", c.sessionID, "error", err)
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send(models.WSTypeError, models.ErrorEvent{ErrorCode: "BAD_MESSAGE", Message: "Message must be JSON"})
			continue
		}

		switch msg.Type {
		case models.WSTypeCompose:
			var in models.EmailInputs
			if err := json.Unmarshal(msg.Payload, &in); err != nil {
				c.send(models.WSTypeError, models.ErrorEvent{Operation: services.OperationCompose, ErrorCode: "BAD_MESSAGE", Message: "Invalid compose payload"})
				continue
			}
			h.startStream(ctx, c, services.OperationCompose,
				func(sess *services.Session) error { return h.composer.CheckCompose(sess, &in) },
				func(streamCtx context.Context, sess *services.Session) (<-chan stream.Fragment, error) {
					return h.composer.Compose(streamCtx, sess, in)
				})
		case models.WSTypeRefine:
			var req models.RefineRequest
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				c.send(models.WSTypeError, models.ErrorEvent{Operation: services.OperationRefine, ErrorCode: "BAD_MESSAGE", Message: "Invalid refine payload"})
				continue
			}
			h.startStream(ctx, c, services.OperationRefine,
				func(sess *services.Session) error { return h.composer.CheckRefine(sess, req.Instruction) },
				func(streamCtx context.Context, sess *services.Session) (<-chan stream.Fragment, error) {
					return h.composer.Refine(streamCtx, sess, req.Instruction)
				})
		default:
			c.send(models.WSTypeError, models.ErrorEvent{ErrorCode: "BAD_MESSAGE", Message: "Unknown message type"})
		}
	}
}

type streamFunc func(ctx context.Context, sess *services.Session) (<-chan stream.Fragment, error)

// startStream supersedes the session's current stream and renders a new one
// to c in the background. A request rejected by check leaves the current
// stream running.
func (h *Hub) startStream(connCtx context.Context, c *client, operation string, check func(*services.Session) error, open streamFunc) {
	sess, err := h.registry.Get(c.sessionID)
	if err != nil {
		c.send(models.WSTypeError, streamError(operation, err))
		return
	}
	if err := check(sess); err != nil {
		c.send(models.WSTypeError, streamError(operation, err))
		return
	}

	streamCtx, cancel := context.WithCancel(connCtx)
	handle := &activeStream{cancel: cancel}
	h.replaceStream(c.sessionID, handle)

	frags, err := open(streamCtx, sess)
	if err != nil {
		h.clearStream(c.sessionID, handle)
		c.send(models.WSTypeError, streamError(operation, err))
		return
	}

	go h.pump(streamCtx, c, handle, operation, frags)
}

func (h *Hub) pump(ctx context.Context, c *client, handle *activeStream, operation string, frags <-chan stream.Fragment) {
	defer h.clearStream(c.sessionID, handle)

	if err := h.tracker.Begin(context.WithoutCancel(ctx), c.sessionID, models.ActionBody); err != nil {
		slog.Warn("failed to record stream start", "session", c.sessionID, "error", err)
	}

	apology := services.StreamApology(operation)
	acc := stream.New(apology)
	text, err := acc.Run(ctx, frags, func(buf string) error {
		return c.send(models.WSTypeBuffer, models.BufferUpdate{
			Action:    models.ActionBody,
			Operation: operation,
			Text:      buf,
			Fragments: acc.Fragments(),
		})
	})

	var errMsg string
	switch {
	case err == nil:
		c.send(models.WSTypeCompleted, models.CompletedEvent{Action: models.ActionBody, Operation: operation, Text: text})
	case ctx.Err() != nil:
		// Superseded or the socket went away; nothing more to show.
	case acc.State() == stream.Failed && text == apology:
		errMsg = apology
		slog.Error("stream failed", "session", c.sessionID, "operation", operation, "error", err)
		c.send(models.WSTypeError, models.ErrorEvent{Action: models.ActionBody, Operation: operation, ErrorCode: "GENERATION_FAILED", Message: apology})
	default:
		slog.Debug("stream subscriber gone", "session", c.sessionID, "error", err)
	}

	if err := h.tracker.Finish(context.WithoutCancel(ctx), c.sessionID, models.ActionBody, errMsg); err != nil {
		slog.Warn("failed to record stream result", "session", c.sessionID, "error", err)
	}
}

func streamError(operation string, err error) models.ErrorEvent {
	ev := models.ErrorEvent{Action: models.ActionBody, Operation: operation}

	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]string, 0, len(verr.Fields))
		for f := range verr.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		ev.ErrorCode = "VALIDATION_ERROR"
		ev.Message = "Validation failed: " + strings.Join(fields, ", ")
	case errors.Is(err, services.ErrNoActiveSession):
		ev.ErrorCode = "NO_ACTIVE_SESSION"
		ev.Message = "Session has expired or was discarded"
	default:
		ev.ErrorCode = "GENERATION_FAILED"
		ev.Message = services.StreamApology(operation)
	}
	return ev
}

func (h *Hub) replaceStream(sessionID uuid.UUID, next *activeStream) {
	h.mu.Lock()
	prev := h.streams[sessionID]
	h.streams[sessionID] = next
	h.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
}

func (h *Hub) clearStream(sessionID uuid.UUID, handle *activeStream) {
	handle.cancel()

	h.mu.Lock()
	if h.streams[sessionID] == handle {
		delete(h.streams, sessionID)
	}
	h.mu.Unlock()
}

func (h *Hub) registerConnection(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[c.sessionID] = append(h.connections[c.sessionID], c)

	// Start the status subscription if this is the first socket of the session
	if len(h.connections[c.sessionID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[c.sessionID] = cancel
		go h.forwardStatus(ctx, c.sessionID)
	}

	slog.Info("websocket connected", "session", c.sessionID, "total", len(h.connections[c.sessionID]))
}

func (h *Hub) unregisterConnection(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.conn.Close()

	conns := h.connections[c.sessionID]
	for i, cc := range conns {
		if cc == c {
			h.connections[c.sessionID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[c.sessionID]) == 0 {
		delete(h.connections, c.sessionID)
		if cancel, ok := h.cancelFuncs[c.sessionID]; ok {
			cancel()
			delete(h.cancelFuncs, c.sessionID)
		}
	}

	slog.Info("websocket disconnected", "session", c.sessionID)
}

func (h *Hub) forwardStatus(ctx context.Context, sessionID uuid.UUID) {
	updates, err := h.tracker.Subscribe(ctx, sessionID)
	if err != nil {
		slog.Warn("status subscription failed", "session", sessionID, "error", err)
		return
	}

	for st := range updates {
		h.broadcast(sessionID, models.WSTypeStatusUpdate, st)
	}
}

func (h *Hub) broadcast(sessionID uuid.UUID, msgType string, payload interface{}) {
	h.mu.RLock()
	conns := append([]*client(nil), h.connections[sessionID]...)
	h.mu.RUnlock()

	for _, c := range conns {
		c.send(msgType, payload)
	}
}

// Connections reports how many sockets are open for a session.
func (h *Hub) Connections(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[sessionID])
}
