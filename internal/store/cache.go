package store

import (
	"context"
	"fmt"
	"time"

	"github.com/yourorg/wandermate/internal/config"
)

// OpenCache builds the cache backend named in cfg. The sqlite backend
// shares st's database.
func OpenCache(ctx context.Context, cfg config.CacheConfig, st *SQLiteStore) (Cache, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryCache(10 * time.Minute), nil
	case "sqlite":
		if st == nil {
			return nil, fmt.Errorf("sqlite cache requires a store")
		}
		return st.Cache(), nil
	case "redis":
		rc := NewRedisCache(cfg.RedisAddr, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
