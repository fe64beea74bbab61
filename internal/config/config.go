package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// InternalKeySentinel is the API key value that tells the provider factory
// to use the operator-funded key configured for the process.
const InternalKeySentinel = "internal"

// Config holds configuration for the chat backend.
type Config struct {
	HTTPPort         string
	JWTSecret        []byte
	InternalAPIToken string
	LogLevel         string
	CORSOrigins      []string
	Database         DatabaseConfig
	Cache            CacheConfig
	Redis            RedisConfig
	KeyManagement    KeyManagementConfig
	Provider         ProviderConfig
	RateLimit        RateLimitConfig
	LoggingSink      LoggingSinkConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
}

// CacheConfig holds cache settings
type CacheConfig struct {
	SettingsCacheSize int
	SettingsCacheTTL  time.Duration
}

// RedisConfig holds Redis connection settings.
// An empty Address disables Redis-backed features.
type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KeyManagementConfig configures encryption of stored provider keys.
// Key (base64, 32 bytes) wins over Secret when both are set.
type KeyManagementConfig struct {
	Secret string
	Key    string
}

// ProviderConfig holds provider-related settings
type ProviderConfig struct {
	InternalKeys   map[string]string // provider id -> operator key
	RequestTimeout time.Duration
}

// RateLimitConfig holds per-user request limits (0 = unlimited)
type RateLimitConfig struct {
	MutationsPerMinute int
	ChatPerMinute      int
}

// LoggingSinkConfig holds configuration for the S3-based audit sink
type LoggingSinkConfig struct {
	Enabled       bool          // Whether to ship audit records to S3
	BufferSize    int           // In-memory queue size
	FlushSize     int           // Flush to S3 after this many records
	FlushInterval time.Duration // Flush to S3 after this duration
	S3Bucket      string
	S3Region      string
	S3Prefix      string
	PodName       string
}

// internalKeyEnv maps provider ids to the environment variables holding
// the operator keys. Several names are accepted for google.
var internalKeyEnv = map[string][]string{
	"openai":     {"OPENAI_API_KEY"},
	"anthropic":  {"ANTHROPIC_API_KEY"},
	"google":     {"GOOGLE_API_KEY", "GOOGLE_GENERATIVE_AI_API_KEY", "GEMINI_API_KEY"},
	"groq":       {"GROQ_API_KEY"},
	"xai":        {"XAI_API_KEY"},
	"openrouter": {"OPENROUTER_API_KEY"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_allowed_origins", "*")

	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 5)
	v.SetDefault("db_conn_max_lifetime", 5*time.Minute)
	v.SetDefault("db_conn_max_idle_time", 1*time.Minute)
	v.SetDefault("db_query_timeout", 5*time.Second)

	v.SetDefault("cache_settings_size", 1000)
	v.SetDefault("cache_settings_ttl", 5*time.Minute)

	v.SetDefault("redis_address", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_pool_size", 10)
	v.SetDefault("redis_min_idle_conns", 2)
	v.SetDefault("redis_dial_timeout", 5*time.Second)
	v.SetDefault("redis_read_timeout", 3*time.Second)
	v.SetDefault("redis_write_timeout", 3*time.Second)

	v.SetDefault("provider_request_timeout", 60*time.Second)

	v.SetDefault("ratelimit_mutations_per_minute", 60)
	v.SetDefault("ratelimit_chat_per_minute", 30)

	v.SetDefault("logging_sink_enabled", false)
	v.SetDefault("logging_sink_buffer_size", 10000)
	v.SetDefault("logging_sink_flush_size", 1000)
	v.SetDefault("logging_sink_flush_interval", 5*time.Minute)
	v.SetDefault("logging_sink_s3_region", "us-east-1")
	v.SetDefault("logging_sink_s3_prefix", "audit/")
	v.SetDefault("pod_name", "chatd-0")
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	for id, envs := range internalKeyEnv {
		_ = v.BindEnv(append([]string{"internal_key_" + id}, envs...)...)
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	dbURL := v.GetString("database_url")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	jwtSecret := v.GetString("jwt_secret")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	km := KeyManagementConfig{
		Secret: v.GetString("key_management_secret"),
		Key:    v.GetString("key_management_key"),
	}
	if km.Secret == "" && km.Key == "" {
		return nil, fmt.Errorf("KEY_MANAGEMENT_SECRET or KEY_MANAGEMENT_KEY is required")
	}

	internalKeys := make(map[string]string, len(internalKeyEnv))
	for id := range internalKeyEnv {
		if key := strings.TrimSpace(v.GetString("internal_key_" + id)); key != "" {
			internalKeys[id] = key
		}
	}

	cfg := &Config{
		HTTPPort:         v.GetString("http_port"),
		JWTSecret:        []byte(jwtSecret),
		InternalAPIToken: v.GetString("internal_api_token"),
		LogLevel:         v.GetString("log_level"),
		CORSOrigins:      splitList(v.GetString("cors_allowed_origins")),
		Database: DatabaseConfig{
			URL:             dbURL,
			MaxOpenConns:    v.GetInt("db_max_open_conns"),
			MaxIdleConns:    v.GetInt("db_max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("db_conn_max_idle_time"),
			QueryTimeout:    v.GetDuration("db_query_timeout"),
		},
		Cache: CacheConfig{
			SettingsCacheSize: v.GetInt("cache_settings_size"),
			SettingsCacheTTL:  v.GetDuration("cache_settings_ttl"),
		},
		Redis: RedisConfig{
			Address:      v.GetString("redis_address"),
			Password:     v.GetString("redis_password"),
			DB:           v.GetInt("redis_db"),
			PoolSize:     v.GetInt("redis_pool_size"),
			MinIdleConns: v.GetInt("redis_min_idle_conns"),
			DialTimeout:  v.GetDuration("redis_dial_timeout"),
			ReadTimeout:  v.GetDuration("redis_read_timeout"),
			WriteTimeout: v.GetDuration("redis_write_timeout"),
		},
		KeyManagement: km,
		Provider: ProviderConfig{
			InternalKeys:   internalKeys,
			RequestTimeout: v.GetDuration("provider_request_timeout"),
		},
		RateLimit: RateLimitConfig{
			MutationsPerMinute: v.GetInt("ratelimit_mutations_per_minute"),
			ChatPerMinute:      v.GetInt("ratelimit_chat_per_minute"),
		},
		LoggingSink: LoggingSinkConfig{
			Enabled:       v.GetBool("logging_sink_enabled"),
			BufferSize:    v.GetInt("logging_sink_buffer_size"),
			FlushSize:     v.GetInt("logging_sink_flush_size"),
			FlushInterval: v.GetDuration("logging_sink_flush_interval"),
			S3Bucket:      v.GetString("logging_sink_s3_bucket"),
			S3Region:      v.GetString("logging_sink_s3_region"),
			S3Prefix:      v.GetString("logging_sink_s3_prefix"),
			PodName:       v.GetString("pod_name"),
		},
	}

	if cfg.LoggingSink.Enabled && cfg.LoggingSink.S3Bucket == "" {
		return nil, fmt.Errorf("LOGGING_SINK_S3_BUCKET is required when LOGGING_SINK_ENABLED is true")
	}

	return cfg, nil
}

// splitList parses a comma-separated env value.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// InternalKey returns the operator key for a provider, or "" when unset.
func (c *Config) InternalKey(providerID string) string {
	if c == nil || c.Provider.InternalKeys == nil {
		return ""
	}
	return c.Provider.InternalKeys[providerID]
}
