package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "sqlite://:memory:")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("KEY_MANAGEMENT_SECRET", "test-key-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, []byte("test-secret"), cfg.JWTSecret)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, 1000, cfg.Cache.SettingsCacheSize)
	assert.Equal(t, "", cfg.Redis.Address)
	assert.Equal(t, 60, cfg.RateLimit.MutationsPerMinute)
	assert.False(t, cfg.LoggingSink.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DB_QUERY_TIMEOUT", "2s")
	t.Setenv("RATELIMIT_CHAT_PER_MINUTE", "7")
	t.Setenv("REDIS_ADDRESS", "redis:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://chat.example.com, https://staging.example.com,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 2*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, 7, cfg.RateLimit.ChatPerMinute)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, []string{"https://chat.example.com", "https://staging.example.com"}, cfg.CORSOrigins)
}

func TestLoad_InternalKeys(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("GEMINI_API_KEY", "gm-test")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GOOGLE_GENERATIVE_AI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-ant-test", cfg.InternalKey("anthropic"))
	assert.Equal(t, "gm-test", cfg.InternalKey("google"))
	assert.Equal(t, "", cfg.InternalKey("openai"))
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"database url", "DATABASE_URL"},
		{"jwt secret", "JWT_SECRET"},
		{"key management", "KEY_MANAGEMENT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_SinkRequiresBucket(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOGGING_SINK_ENABLED", "true")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("LOGGING_SINK_S3_BUCKET", "audit-bucket")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.LoggingSink.Enabled)
}

func TestInternalKey_NilConfig(t *testing.T) {
	var cfg *Config
	assert.Equal(t, "", cfg.InternalKey("openai"))
}
