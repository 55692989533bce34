package cache

import (
	"context"
	"time"
)

// LayeredCache is a two-level cache: memory in front of a shared backend.
type LayeredCache struct {
	l1    *MemoryCache
	l2    Service
	l1TTL time.Duration
}

// NewLayeredCache creates a layered cache. l1TTL bounds how long the
// memory copy may serve a value written by another process.
func NewLayeredCache(l2 Service, l1TTL time.Duration, opts ...MemoryOption) *LayeredCache {
	return &LayeredCache{
		l1:    NewMemoryCache(opts...),
		l2:    l2,
		l1TTL: l1TTL,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	// Write-through: backend first, then memory
	if err := lc.l2.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.l1.Set(ctx, key, value, lc.memoryTTL(expiration))
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.l1.Get(ctx, key, dest); err == nil {
		return nil
	}

	if err := lc.l2.Get(ctx, key, dest); err != nil {
		return err
	}

	_ = lc.l1.Set(ctx, key, dest, lc.l1TTL)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.l1.Delete(ctx, keys...)
	return lc.l2.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	if ok, _ := lc.l1.Exists(ctx, keys...); ok {
		return true, nil
	}
	return lc.l2.Exists(ctx, keys...)
}

func (lc *LayeredCache) memoryTTL(expiration time.Duration) time.Duration {
	if expiration <= 0 || (lc.l1TTL > 0 && lc.l1TTL < expiration) {
		return lc.l1TTL
	}
	return expiration
}

// Close stops the memory layer. The backend is owned by the caller.
func (lc *LayeredCache) Close() error {
	return lc.l1.Close()
}
