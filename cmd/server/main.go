package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Timi2001/AI-Email-Assistant/internal/config"
	"github.com/Timi2001/AI-Email-Assistant/internal/database"
	"github.com/Timi2001/AI-Email-Assistant/internal/handlers"
	"github.com/Timi2001/AI-Email-Assistant/internal/logging"
	"github.com/Timi2001/AI-Email-Assistant/internal/middleware"
	"github.com/Timi2001/AI-Email-Assistant/internal/router"
	"github.com/Timi2001/AI-Email-Assistant/internal/services"
	"github.com/Timi2001/AI-Email-Assistant/internal/websocket"
)

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	logging.Setup(cfg.LogVerbose)
	slog.Info("🚀 Starting AI Email Assistant backend...", "env", cfg.Env)
	slog.Info("✓ Environment variables loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ──── Step 2: Initialize Text Provider ────
	var provider services.Provider
	if cfg.UseMockProvider() {
		provider = &services.MockProvider{}
		slog.Warn("✓ Mock text provider enabled (LLM_PROVIDER=mock)")
	} else {
		geminiService, err := services.NewGeminiService(ctx, services.GeminiConfig{
			APIKey:             cfg.GeminiAPIKey,
			Model:              cfg.GeminiModel,
			Temperature:        cfg.GeminiTemperature,
			ConcurrentRequests: cfg.GeminiConcurrentReqs,
		})
		if err != nil {
			fatal("✗ Gemini client initialization failed", err)
		}
		defer geminiService.Close()
		provider = geminiService
		slog.Info("✓ Gemini client initialized", "model", cfg.GeminiModel)
	}

	// ──── Step 3: Initialize Status Tracking ────
	var tracker services.StatusTracker
	if cfg.RedisURL != "" {
		redisClients, err := database.NewRedisClients(cfg.RedisURL)
		if err != nil {
			fatal("✗ Redis connection failed", err)
		}
		defer redisClients.Close()
		tracker = services.NewRedisStatusTracker(redisClients.Status, redisClients.PubSub, cfg.SessionTTL)
		slog.Info("✓ Redis connected, action status shared across instances")
	} else {
		tracker = services.NewMemoryStatusTracker()
		slog.Info("✓ In-memory action status tracker (REDIS_URL not set)")
	}

	// ──── Step 4: Initialize Sessions ────
	tokens := middleware.NewSessionTokens(cfg.SessionSecret, cfg.SessionTTL)
	registry := services.NewSessionRegistry(cfg.SessionTTL)
	registry.StartJanitor(ctx, time.Minute)
	slog.Info("✓ Session registry started", "ttl", cfg.SessionTTL)

	composer := services.NewComposer(provider)
	runner := services.NewActionRunner(composer, tracker)

	// ──── Step 5: Initialize Handlers ────
	sessionHandler := handlers.NewSessionHandler(composer, registry, tracker, tokens)
	actionHandler := handlers.NewActionHandler(runner, registry)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(composer, registry, tracker, tokens)
	slog.Info("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	limiters := router.DefaultLimiters()
	defer limiters.Stop()

	r := router.New(
		tokens,
		sessionHandler,
		actionHandler,
		wsHub,
		limiters,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Generous: one-shot actions wait on the provider inside the request.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		slog.Info("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info(fmt.Sprintf("✓ AI Email Assistant ready on http://localhost:%s", cfg.Port))
	slog.Info(fmt.Sprintf("  API: http://localhost:%s/api/v1", cfg.Port))
	slog.Info(fmt.Sprintf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		fatal("Server error", err)
	}
}
