package store

import (
	"context"
	"testing"
	"time"

	"github.com/yourorg/wandermate/internal/config"
)

func TestMemoryCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	if _, ok, _ := c.Get(ctx, "missing"); ok {
		t.Fatalf("expected miss")
	}
	_ = c.Set(ctx, "k", "v", time.Hour)
	if v, ok, err := c.Get(ctx, "k"); err != nil || !ok || v != "v" {
		t.Fatalf("expected hit, got %q %v %v", v, ok, err)
	}
	_ = c.Delete(ctx, "k")
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected deleted")
	}
}

func TestMemoryCacheLazyExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Hour)
	_ = c.Set(ctx, "k", "v", 20*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected expired entry to read as absent")
	}
}

func TestOpenCacheBackends(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	defer st.Close()

	c, err := OpenCache(ctx, cacheConfig("memory"), st)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*MemoryCache); !ok {
		t.Fatalf("expected memory cache, got %T", c)
	}
	c, err = OpenCache(ctx, cacheConfig("sqlite"), st)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*SQLiteCache); !ok {
		t.Fatalf("expected sqlite cache, got %T", c)
	}
	if _, err := OpenCache(ctx, cacheConfig("bogus"), st); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func cacheConfig(backend string) config.CacheConfig {
	return config.CacheConfig{Backend: backend, TTLSeconds: 60}
}
