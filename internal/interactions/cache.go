package interactions

import (
	"context"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/htsula/noornote/internal/ops"
)

// Cache stores the last DetailedStats per item with a time-to-live.
// Snapshots are immutable once stored; MergeReactions replaces the entry
// with an extended copy instead of mutating it, so readers holding an
// older snapshot are never raced.
type Cache struct {
	aggregator *Aggregator
	ttl        time.Duration
	log        *ops.Logger

	mu      sync.RWMutex
	entries map[string]*cacheEntry
	flight  coalescer

	now func() time.Time // injectable for tests
}

type cacheEntry struct {
	stats    *DetailedStats
	storedAt time.Time
}

// NewCache creates a stats cache over the given aggregator
func NewCache(aggregator *Aggregator, ttl time.Duration, logger *ops.Logger) *Cache {
	if logger == nil {
		logger = ops.Default()
	}
	return &Cache{
		aggregator: aggregator,
		ttl:        ttl,
		log:        logger.WithComponent("cache"),
		entries:    make(map[string]*cacheEntry),
		now:        time.Now,
	}
}

// Get returns the cached snapshot if younger than the TTL, otherwise
// aggregates fresh, stores the result, and returns it. Concurrent calls
// for the same item coalesce into a single aggregation.
func (c *Cache) Get(ctx context.Context, item ItemRef) *DetailedStats {
	key := item.CacheKey()

	if stats := c.fresh(key); stats != nil {
		c.log.LogCacheOperation("get", key, true)
		return stats
	}
	c.log.LogCacheOperation("get", key, false)

	stats, _ := c.flight.do(key, func() (*DetailedStats, error) {
		// A coalesced caller may have stored a fresh entry while this
		// one waited for the flight slot.
		if stats := c.fresh(key); stats != nil {
			return stats, nil
		}

		stats := c.aggregator.Aggregate(ctx, item)

		c.mu.Lock()
		c.entries[key] = &cacheEntry{stats: stats, storedAt: c.now()}
		c.mu.Unlock()

		return stats, nil
	})
	return stats
}

// Peek returns the cached snapshot only if fresh; it never triggers a
// fetch. Returns nil when absent or stale.
func (c *Cache) Peek(item ItemRef) *DetailedStats {
	key := item.CacheKey()
	stats := c.fresh(key)
	c.log.LogCacheOperation("peek", key, stats != nil)
	return stats
}

// MergeReactions appends newly discovered reaction events to the cached
// snapshot, skipping authors already present, and refreshes the entry's
// timestamps. The merge is keyed on author identity, so overlapping
// merges and refreshes converge to the same deduplicated set. Returns
// the updated snapshot, or nil when no entry exists to merge into.
func (c *Cache) MergeReactions(item ItemRef, events []*nostr.Event) *DetailedStats {
	key := item.CacheKey()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}

	seen := make(map[string]bool, len(entry.stats.Reactions))
	for _, reaction := range entry.stats.Reactions {
		seen[reaction.PubKey] = true
	}

	merged := *entry.stats
	merged.Reactions = append([]*nostr.Event(nil), entry.stats.Reactions...)
	for _, event := range events {
		if event == nil || seen[event.PubKey] {
			continue
		}
		seen[event.PubKey] = true
		merged.Reactions = append(merged.Reactions, event)
	}
	merged.UpdatedAt = nostr.Now()

	c.entries[key] = &cacheEntry{stats: &merged, storedAt: c.now()}
	return &merged
}

// Invalidate drops the cached snapshot for one item
func (c *Cache) Invalidate(item ItemRef) {
	key := item.CacheKey()
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.log.LogCacheOperation("invalidate", key, false)
}

// Clear drops all cached snapshots
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
	c.log.LogCacheOperation("clear", "*", false)
}

// fresh returns the entry's snapshot if present and younger than the TTL
func (c *Cache) fresh(key string) *DetailedStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		return nil
	}
	return entry.stats
}
