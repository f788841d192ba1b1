package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/graxinc/errutil"
	"github.com/redis/go-redis/v9"
)

const claimPrefix = "slashbridge:claim:"

// Cache records which interactions have been claimed so the same event is
// handled once across listeners and shards. Redis is authoritative; when it
// is unavailable or the breaker is open, claims fall back to process memory.
type Cache struct {
	c  *redis.Client
	l  *slog.Logger
	cb *CircuitBreaker
	fb *FallbackCache
}

func NewCache(url string, l *slog.Logger) (*Cache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errutil.With(err)
	}

	c := NewMemoryCache(l)
	c.c = redis.NewClient(opt)
	return c, nil
}

// NewMemoryCache claims in process memory only.
func NewMemoryCache(l *slog.Logger) *Cache {
	cb := NewCircuitBreaker(5, 30*time.Second)
	cb.OnTransition = func(from, to CircuitState) {
		level := slog.LevelInfo
		if to == StateOpen {
			level = slog.LevelWarn
		}
		l.Log(context.Background(), level, "claim breaker changed state", "from", from, "to", to)
	}

	return &Cache{
		l:  l,
		cb: cb,
		fb: NewFallbackCache(10000),
	}
}

// Claim reports whether the caller is the first to claim key within ttl.
func (c *Cache) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if c.c == nil || !c.cb.Allow() {
		return c.fb.SetIfAbsent(key, ttl), nil
	}

	ok, err := c.c.SetNX(ctx, claimPrefix+key, 1, ttl).Result()
	if err != nil {
		c.cb.RecordFailure()
		c.l.Warn("error claiming in redis, using fallback", "error", err, "key", key, "breaker", c.cb.State())
		return c.fb.SetIfAbsent(key, ttl), nil
	}

	c.cb.RecordSuccess()
	if ok {
		c.fb.SetIfAbsent(key, ttl)
	}
	return ok, nil
}

func (c *Cache) Close() error {
	c.fb.Close()
	if c.c == nil {
		return nil
	}
	return c.c.Close()
}
