package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Timi2001/AI-Email-Assistant/internal/handlers"
	"github.com/Timi2001/AI-Email-Assistant/internal/middleware"
	"github.com/Timi2001/AI-Email-Assistant/internal/websocket"
)

// Limiters are the per-IP limiters guarding the expensive route groups.
type Limiters struct {
	Sessions *middleware.RateLimiter
	Actions  *middleware.RateLimiter
}

// DefaultLimiters allows 20 session opens and 60 action calls per minute per IP.
func DefaultLimiters() Limiters {
	return Limiters{
		Sessions: middleware.NewRateLimiter(20, time.Minute),
		Actions:  middleware.NewRateLimiter(60, time.Minute),
	}
}

func (l Limiters) Stop() {
	l.Sessions.Stop()
	l.Actions.Stop()
}

func New(
	tokens *middleware.SessionTokens,
	sessionHandler *handlers.SessionHandler,
	actionHandler *handlers.ActionHandler,
	wsHub *websocket.Hub,
	limiters Limiters,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", handlers.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/tones", handlers.Tones)
		r.Get("/samples", handlers.Samples)

		// ──── Session Routes ────
		r.Route("/sessions", func(r chi.Router) {
			r.Use(limiters.Sessions.Middleware)
			r.Post("/", sessionHandler.Open)

			r.Group(func(r chi.Router) {
				r.Use(tokens.Middleware)
				r.Delete("/current", sessionHandler.Discard)
				r.Post("/current/refresh", sessionHandler.Refresh)
			})
		})

		// ──── One-shot Action Routes ────
		r.Route("/actions", func(r chi.Router) {
			r.Use(tokens.Middleware)
			r.Get("/status", actionHandler.Status)

			r.With(limiters.Actions.Middleware).Post("/{action}", actionHandler.Run)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
