package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"xfollowers/pkg/config"
	"xfollowers/pkg/supplier"
)

var (
	// ErrCacheMiss indicates the id was not found or its entry expired
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates a stored entry could not be decoded
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Cache stores detail lookups by account id across runs
type Cache interface {
	Get(ctx context.Context, id string) (*Entry, error)
	Set(ctx context.Context, id string, entry *Entry) error
	Close() error
}

// Entry is one cached detail lookup
type Entry struct {
	Detail  *supplier.UserDetail `json:"detail"`
	Expires time.Time            `json:"expires"`
}

// NewEntry wraps detail with an expiry ttl from now
func NewEntry(detail *supplier.UserDetail, ttl time.Duration) *Entry {
	return &Entry{Detail: detail, Expires: time.Now().Add(ttl)}
}

// IsExpired reports whether the entry is past its expiry
func (e *Entry) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// TTL returns the time left before expiry
func (e *Entry) TTL() time.Duration {
	return time.Until(e.Expires)
}

// Key returns the storage key for an account id
func Key(id string) string {
	return "xfollowers:detail:" + id
}

// New builds the cache selected by cfg. A disabled cache returns nil, nil.
func New(ctx context.Context, cfg *config.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Backend {
	case "", "redis":
		return DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "memory":
		return NewMemoryCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
