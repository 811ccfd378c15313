package interactions

import (
	"context"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/htsula/noornote/internal/config"
	"github.com/htsula/noornote/internal/ops"
)

// Engine is the facade consumers use. Construct one per process at
// startup and pass it by reference; it owns the aggregator, cache, and
// live poller. No method ever returns an error to the consumer: every
// failure degrades to an empty or zeroed result.
type Engine struct {
	cfg        *config.Interactions
	aggregator *Aggregator
	cache      *Cache
	poller     *LivePoller
	log        *ops.Logger
}

// NewEngine wires the interaction aggregation engine over the given
// transport and relay set.
func NewEngine(transport Transport, relays []string, cfg *config.Interactions, logger *ops.Logger) *Engine {
	if logger == nil {
		logger = ops.Default()
	}

	fetchers := NewFetchers(transport, relays, cfg, logger)
	aggregator := NewAggregator(fetchers, logger)
	cache := NewCache(aggregator, cfg.CacheTTL(), logger)
	poller := NewLivePoller(fetchers, cache, logger)

	return &Engine{
		cfg:        cfg,
		aggregator: aggregator,
		cache:      cache,
		poller:     poller,
		log:        logger.WithComponent("interactions"),
	}
}

// GetDetailedStats returns the full deduplicated interaction snapshot
// for an item, served from cache when fresh. May trigger network I/O.
// An invalid ref short-circuits to a zeroed snapshot without any
// network call.
func (e *Engine) GetDetailedStats(ctx context.Context, item ItemRef) *DetailedStats {
	if err := item.Validate(); err != nil {
		e.log.LogInvalidIdentifier(item.CacheKey(), err)
		return &DetailedStats{Status: FetchFailed, UpdatedAt: nostr.Now()}
	}
	return e.cache.Get(ctx, item)
}

// GetStats returns the summary counters for an item. May trigger
// network I/O.
func (e *Engine) GetStats(ctx context.Context, item ItemRef) InteractionStats {
	return e.GetDetailedStats(ctx, item).Summarize()
}

// GetCachedStats returns the summary counters only if a fresh cached
// snapshot exists. Never triggers I/O; returns nil when absent or stale.
func (e *Engine) GetCachedStats(item ItemRef) *InteractionStats {
	if err := item.Validate(); err != nil {
		e.log.LogInvalidIdentifier(item.CacheKey(), err)
		return nil
	}
	stats := e.cache.Peek(item)
	if stats == nil {
		return nil
	}
	summary := stats.Summarize()
	return &summary
}

// StartLive begins polling the item for new reactions, invoking onUpdate
// with recomputed summary counters after each successful merge. A zero
// interval uses the configured default.
func (e *Engine) StartLive(item ItemRef, interval time.Duration, onUpdate func(InteractionStats)) error {
	if interval <= 0 {
		interval = e.cfg.PollInterval()
	}
	return e.poller.Start(item, interval, onUpdate)
}

// StopLive cancels the item's live poller
func (e *Engine) StopLive(item ItemRef) {
	e.poller.Stop(item)
}

// Invalidate drops the cached snapshot for one item
func (e *Engine) Invalidate(item ItemRef) {
	e.cache.Invalidate(item)
}

// ClearAll drops every cached snapshot
func (e *Engine) ClearAll() {
	e.cache.Clear()
}

// Close stops all live pollers. The transport is owned by the caller
// and closed separately.
func (e *Engine) Close() {
	e.poller.StopAll()
}
