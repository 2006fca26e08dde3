package complaint

import (
	"context"
	"fmt"
	"strings"
)

// Config selects and configures the complaint store.
type Config struct {
	Mode          string
	DatabaseURL   string
	SupabaseURL   string
	SupabaseKey   string
	SupabaseTable string
	SQLitePath    string
}

// NewStore builds the configured store. A nil Store with a nil error means
// persistence is disabled.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.DatabaseURL) != "" {
			return NewPostgresStore(ctx, cfg.DatabaseURL)
		}
		if strings.TrimSpace(cfg.SupabaseURL) != "" && strings.TrimSpace(cfg.SupabaseKey) != "" {
			return NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseTable)
		}
		return nil, nil
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for postgres complaint store")
		}
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case "supabase":
		return NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseTable)
	case "sqlite":
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required for sqlite complaint store")
		}
		return NewSQLiteStore(ctx, cfg.SQLitePath)
	case "memory":
		return NewInMemoryStore(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported complaint store %q (expected auto|postgres|supabase|sqlite|memory|none)", cfg.Mode)
	}
}
