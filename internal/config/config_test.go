package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				t.Setenv(tc.key, tc.envValue)
			}

			assert.Equal(t, tc.expected, getEnvOrDefault(tc.key, tc.defaultVal))
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				t.Setenv(tc.key, tc.envValue)
			}

			assert.Equal(t, tc.expected, getEnvAsIntOrDefault(tc.key, tc.defaultVal))
		})
	}
}

func TestGetEnvAsFloatAndBool(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.25")
	t.Setenv("TEST_FLOAT_BAD", "warm")
	t.Setenv("TEST_BOOL", "true")

	assert.InDelta(t, 0.25, getEnvAsFloatOrDefault("TEST_FLOAT", 0.7), 0.0001)
	assert.InDelta(t, 0.7, getEnvAsFloatOrDefault("TEST_FLOAT_BAD", 0.7), 0.0001)
	assert.True(t, getEnvAsBoolOrDefault("TEST_BOOL", false))
	assert.False(t, getEnvAsBoolOrDefault("TEST_BOOL_MISSING", false))
}

func TestMustGetEnv_Panics(t *testing.T) {
	t.Setenv("NONEXISTENT_REQUIRED_VAR", "")
	assert.Panics(t, func() { mustGetEnv("NONEXISTENT_REQUIRED_VAR") })
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	t.Setenv("TEST_REQUIRED", "value123")
	assert.Equal(t, "value123", mustGetEnv("TEST_REQUIRED"))
}

func TestLoad_MockProviderDoesNotNeedAPIKey(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("LLM_PROVIDER", "MOCK")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("SESSION_TTL_MINUTES", "5")

	cfg := Load()
	require.NotNil(t, cfg)
	assert.True(t, cfg.UseMockProvider())
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_GeminiRequiresAPIKey(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")

	assert.Panics(t, func() { Load() })
}

func TestLoadProvider(t *testing.T) {
	t.Run("gemini without key", func(t *testing.T) {
		t.Setenv("LLM_PROVIDER", "gemini")
		t.Setenv("GEMINI_API_KEY", "")

		cfg, err := LoadProvider()
		assert.Nil(t, cfg)
		assert.ErrorContains(t, err, "GEMINI_API_KEY")
	})

	t.Run("does not need a session secret", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", "")
		t.Setenv("LLM_PROVIDER", "gemini")
		t.Setenv("GEMINI_API_KEY", "key")
		t.Setenv("GEMINI_TEMPERATURE", "0.2")

		cfg, err := LoadProvider()
		require.NoError(t, err)
		assert.Equal(t, "key", cfg.GeminiAPIKey)
		assert.InDelta(t, 0.2, cfg.GeminiTemperature, 0.0001)
		assert.Equal(t, 5, cfg.GeminiConcurrentReqs)
	})
}
