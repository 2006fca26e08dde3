package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains all runtime settings for the helpdesk intake service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	LogLevel         string
	LogFormat        string
	MaxRequestBytes  int

	AllowedOrigins []string

	SessionBackend         string
	SessionTTL             time.Duration
	SessionJanitorInterval time.Duration
	EtcdEndpoints          []string
	EtcdPrefix             string

	ComplaintStore string
	DatabaseURL    string
	SupabaseURL    string
	SupabaseKey    string
	SupabaseTable  string
	SQLitePath     string

	NameExtractor   string
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string

	WebhookURL     string
	WebhookTimeout time.Duration
}

// LoadDotEnv populates the environment from path when the file exists.
// Variables already set take precedence.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:               envOrDefault("APP_BIND_ADDR", ":8000"),
		MetricsNamespace:       envOrDefault("APP_METRICS_NAMESPACE", "helpdesk"),
		LogLevel:               envOrDefault("APP_LOG_LEVEL", "info"),
		LogFormat:              envOrDefault("APP_LOG_FORMAT", "json"),
		AllowedOrigins:         splitList(envOrDefault("ALLOWED_ORIGINS", "http://localhost:5173")),
		SessionBackend:         envOrDefault("SESSION_BACKEND", "memory"),
		EtcdEndpoints:          splitList(os.Getenv("ETCD_ENDPOINTS")),
		EtcdPrefix:             envOrDefault("ETCD_PREFIX", "helpdesk/sessions/"),
		ComplaintStore:         envOrDefault("COMPLAINT_STORE", "auto"),
		DatabaseURL:            strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SupabaseURL:            strings.TrimSpace(os.Getenv("SUPABASE_URL")),
		SupabaseKey:            strings.TrimSpace(os.Getenv("SUPABASE_KEY")),
		SupabaseTable:          envOrDefault("SUPABASE_TABLE", "complaints"),
		SQLitePath:             envOrDefault("SQLITE_PATH", "helpdesk.db"),
		NameExtractor:          envOrDefault("NAME_EXTRACTOR", "auto"),
		OpenAIAPIKey:           strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:            envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey:        strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicModel:         envOrDefault("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		WebhookURL:             strings.TrimSpace(os.Getenv("WEBHOOK_URL")),
		ShutdownTimeout:        15 * time.Second,
		SessionTTL:             30 * time.Minute,
		SessionJanitorInterval: time.Minute,
		WebhookTimeout:         10 * time.Second,
		MaxRequestBytes:        64 << 10,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionTTL, err = durationFromEnv("SESSION_TTL", cfg.SessionTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionJanitorInterval, err = durationFromEnv("SESSION_JANITOR_INTERVAL", cfg.SessionJanitorInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.WebhookTimeout, err = durationFromEnv("WEBHOOK_TIMEOUT", cfg.WebhookTimeout)
	if err != nil {
		return Config{}, err
	}

	cfg.MaxRequestBytes, err = intFromEnv("APP_MAX_REQUEST_BYTES", cfg.MaxRequestBytes)
	if err != nil {
		return Config{}, err
	}

	if cfg.MaxRequestBytes <= 0 {
		return Config{}, fmt.Errorf("APP_MAX_REQUEST_BYTES must be positive")
	}
	if cfg.SessionTTL < time.Minute {
		return Config{}, fmt.Errorf("SESSION_TTL must be at least 1m")
	}
	if cfg.SessionJanitorInterval <= 0 {
		return Config{}, fmt.Errorf("SESSION_JANITOR_INTERVAL must be positive")
	}
	if cfg.WebhookTimeout <= 0 {
		return Config{}, fmt.Errorf("WEBHOOK_TIMEOUT must be positive")
	}
	if strings.EqualFold(cfg.SessionBackend, "etcd") && len(cfg.EtcdEndpoints) == 0 {
		return Config{}, fmt.Errorf("ETCD_ENDPOINTS is required when SESSION_BACKEND=etcd")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
