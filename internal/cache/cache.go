// Package cache holds upstream payloads for a fixed time-to-live.
//
// Freshness is always decided here, against the injected clock, so the
// backends only need to store and return entries.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/clock"

	"github.com/pders01/folio/internal/config"
	"github.com/pders01/folio/internal/debuglog"
)

// Entry is a cached payload and the moment it was fetched.
type Entry struct {
	Payload   []byte    `json:"payload"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Store is a keyed entry store. Get reports ok=false for unknown keys.
type Store interface {
	Get(ctx context.Context, key string) (entry *Entry, ok bool, err error)
	Set(ctx context.Context, key string, entry *Entry) error
	Clear(ctx context.Context) error
}

type Cache struct {
	store Store
	clock clock.Clock
	ttl   time.Duration
}

func New(store Store, clk clock.Clock, ttl time.Duration) *Cache {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Cache{store: store, clock: clk, ttl: ttl}
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Fresh reports whether e is still inside the TTL window.
func (c *Cache) Fresh(e *Entry) bool {
	if e == nil {
		return false
	}
	return c.clock.Now().Sub(e.FetchedAt) < c.ttl
}

// Get returns the payload for key if present and fresh. Backend failures
// count as a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		debuglog.Warnf("cache get %s: %v", key, err)
		return nil, false
	}
	if !ok || !c.Fresh(entry) {
		return nil, false
	}
	return entry.Payload, true
}

func (c *Cache) Set(ctx context.Context, key string, payload []byte) error {
	entry := &Entry{Payload: payload, FetchedAt: c.clock.Now()}
	if err := c.store.Set(ctx, key, entry); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Clear drops every entry.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// NewStore builds the backend named in cfg.
func NewStore(cfg config.CacheConfig, ttl time.Duration) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		if cfg.KeyPrefix == "" {
			return nil, fmt.Errorf("cache.key_prefix must not be empty for the redis backend")
		}
		return NewRedisStore(RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.KeyPrefix,
			TTL:      ttl,
		}), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
