package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Env         string
	FrontendURL string
	LogVerbose  bool

	// Provider
	LLMProvider          string
	GeminiAPIKey         string
	GeminiModel          string
	GeminiTemperature    float32
	GeminiConcurrentReqs int

	// Redis (optional, status tracking falls back to memory)
	RedisURL string

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:          getEnvOrDefault("PORT", "8080"),
		Env:           getEnvOrDefault("ENV", "development"),
		FrontendURL:   getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		LogVerbose:    getEnvAsBoolOrDefault("LOG_VERBOSE", false),
		RedisURL:      getEnvOrDefault("REDIS_URL", ""),
		SessionSecret: mustGetEnv("SESSION_SECRET"),
		SessionTTL:    time.Duration(getEnvAsIntOrDefault("SESSION_TTL_MINUTES", 30)) * time.Minute,
	}
	loadProvider(cfg)

	// The mock provider never talks to Gemini, so the key is only required for real traffic.
	if !cfg.UseMockProvider() {
		cfg.GeminiAPIKey = mustGetEnv("GEMINI_API_KEY")
	}

	return cfg
}

// LoadProvider reads only the provider settings. The CLI uses it so it can
// run without the server's session secret.
func LoadProvider() (*Config, error) {
	godotenv.Load()

	cfg := &Config{LogVerbose: getEnvAsBoolOrDefault("LOG_VERBOSE", false)}
	loadProvider(cfg)

	if !cfg.UseMockProvider() && cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set (use LLM_PROVIDER=mock to run offline)")
	}
	return cfg, nil
}

func loadProvider(cfg *Config) {
	cfg.LLMProvider = strings.ToLower(getEnvOrDefault("LLM_PROVIDER", "gemini"))
	cfg.GeminiAPIKey = getEnvOrDefault("GEMINI_API_KEY", "")
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash")
	cfg.GeminiTemperature = getEnvAsFloatOrDefault("GEMINI_TEMPERATURE", 0.7)
	cfg.GeminiConcurrentReqs = getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5)
}

// UseMockProvider reports whether the offline provider was requested.
func (c *Config) UseMockProvider() bool {
	return c.LLMProvider == "mock"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float32) float32 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 32)
	if err != nil {
		return defaultVal
	}
	return float32(f)
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
