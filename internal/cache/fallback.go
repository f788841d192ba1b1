package cache

import (
	"sync"
	"time"
)

// FallbackCache is an in-memory set of keys with expiry.
type FallbackCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	maxSize int
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

func NewFallbackCache(maxSize int) *FallbackCache {
	fc := &FallbackCache{
		entries: make(map[string]time.Time),
		maxSize: maxSize,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go fc.cleanup()
	return fc
}

// SetIfAbsent stores key unless a live entry exists, and reports whether it
// stored it.
func (fc *FallbackCache) SetIfAbsent(key string, ttl time.Duration) bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	now := fc.now()
	if expiresAt, ok := fc.entries[key]; ok && now.Before(expiresAt) {
		return false
	}

	if len(fc.entries) >= fc.maxSize {
		fc.evictOldest()
	}

	fc.entries[key] = now.Add(ttl)
	return true
}

func (fc *FallbackCache) Len() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.entries)
}

func (fc *FallbackCache) Close() {
	fc.once.Do(func() { close(fc.done) })
}

func (fc *FallbackCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, expiresAt := range fc.entries {
		if oldestKey == "" || expiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = expiresAt
		}
	}

	if oldestKey != "" {
		delete(fc.entries, oldestKey)
	}
}

func (fc *FallbackCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-fc.done:
			return
		case <-ticker.C:
			fc.mu.Lock()
			now := fc.now()
			for key, expiresAt := range fc.entries {
				if now.After(expiresAt) {
					delete(fc.entries, key)
				}
			}
			fc.mu.Unlock()
		}
	}
}
