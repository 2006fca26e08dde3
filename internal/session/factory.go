package session

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config selects the session backing.
type Config struct {
	Backend       string
	TTL           time.Duration
	EtcdEndpoints []string
	EtcdPrefix    string
}

// NewStore returns the in-memory Manager by default, or an etcd-backed KVStore.
func NewStore(cfg Config, logger *slog.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		return NewManager(cfg.TTL, logger), nil
	case "etcd":
		kv, err := NewEtcdKV(cfg.EtcdEndpoints, 5*time.Second)
		if err != nil {
			return nil, err
		}
		var opts []KVStoreOption
		if cfg.TTL > 0 {
			opts = append(opts, WithTTL(cfg.TTL))
		}
		if cfg.EtcdPrefix != "" {
			opts = append(opts, WithPrefix(cfg.EtcdPrefix))
		}
		return NewKVStore(kv, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported session backend %q (expected memory|etcd)", cfg.Backend)
	}
}
