package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const defaultTTL = 30 * time.Minute

// MemoryCache is an in-process Cache bounded by entry count
type MemoryCache struct {
	mu         sync.RWMutex
	items      map[string]time.Time
	maxEntries int
	now        func() time.Time
	stats      CacheStats
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewMemoryCache creates a cache holding at most maxEntries keys. A
// non-positive maxEntries means no limit.
func NewMemoryCache(maxEntries int) *MemoryCache {
	mc := &MemoryCache{
		items:      make(map[string]time.Time),
		maxEntries: maxEntries,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}

	mc.wg.Add(1)
	go mc.cleanupExpired()

	return mc
}

// Has reports whether key is present and unexpired
func (mc *MemoryCache) Has(ctx context.Context, key string) bool {
	mc.mu.RLock()
	expiry, exists := mc.items[key]
	mc.mu.RUnlock()

	if !exists || mc.now().After(expiry) {
		atomic.AddInt64(&mc.stats.Misses, 1)
		return false
	}

	atomic.AddInt64(&mc.stats.Hits, 1)
	return true
}

// Set remembers key for ttl, evicting the entry closest to expiry when full
func (mc *MemoryCache) Set(ctx context.Context, key string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	now := mc.now()

	mc.mu.Lock()
	if _, exists := mc.items[key]; !exists && mc.maxEntries > 0 && len(mc.items) >= mc.maxEntries {
		mc.removeExpiredLocked(now)
		if len(mc.items) >= mc.maxEntries {
			mc.evictOldestLocked()
		}
	}
	mc.items[key] = now.Add(ttl)
	mc.mu.Unlock()

	atomic.AddInt64(&mc.stats.Sets, 1)
}

// Delete forgets key
func (mc *MemoryCache) Delete(ctx context.Context, key string) {
	mc.mu.Lock()
	delete(mc.items, key)
	mc.mu.Unlock()
}

// Stats returns cache statistics
func (mc *MemoryCache) Stats() CacheStats {
	mc.mu.RLock()
	size := int64(len(mc.items))
	mc.mu.RUnlock()

	return CacheStats{
		Hits:       atomic.LoadInt64(&mc.stats.Hits),
		Misses:     atomic.LoadInt64(&mc.stats.Misses),
		Sets:       atomic.LoadInt64(&mc.stats.Sets),
		Evictions:  atomic.LoadInt64(&mc.stats.Evictions),
		Size:       size,
		MaxEntries: int64(mc.maxEntries),
	}
}

// Stop ends the background expiry sweep. Safe to call more than once.
func (mc *MemoryCache) Stop() {
	mc.stopOnce.Do(func() { close(mc.stopCh) })
	mc.wg.Wait()
}

func (mc *MemoryCache) cleanupExpired() {
	defer mc.wg.Done()
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			mc.removeExpiredLocked(mc.now())
			mc.mu.Unlock()
		case <-mc.stopCh:
			return
		}
	}
}

func (mc *MemoryCache) removeExpiredLocked(now time.Time) {
	for key, expiry := range mc.items {
		if now.After(expiry) {
			delete(mc.items, key)
			atomic.AddInt64(&mc.stats.Evictions, 1)
		}
	}
}

func (mc *MemoryCache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, expiry := range mc.items {
		if oldestKey == "" || expiry.Before(oldest) {
			oldestKey, oldest = key, expiry
		}
	}
	if oldestKey != "" {
		delete(mc.items, oldestKey)
		atomic.AddInt64(&mc.stats.Evictions, 1)
	}
}
