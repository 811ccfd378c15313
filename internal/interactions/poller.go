package interactions

import (
	"context"
	"fmt"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/htsula/noornote/internal/ops"
)

// LivePoller periodically re-queries reaction activity for subscribed
// items and merges new events into the cached snapshot. Each item gets
// its own recurring timer, independent of any in-flight one-shot
// aggregation.
type LivePoller struct {
	fetchers *Fetchers
	cache    *Cache
	log      *ops.Logger
	pollers  *xsync.MapOf[string, *pollState]
}

// pollState tracks one subscribed item's incremental window. The since
// field is only touched by the item's poll goroutine.
type pollState struct {
	item   ItemRef
	since  nostr.Timestamp
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLivePoller creates a live poller over the given fetchers and cache
func NewLivePoller(fetchers *Fetchers, cache *Cache, logger *ops.Logger) *LivePoller {
	if logger == nil {
		logger = ops.Default()
	}
	return &LivePoller{
		fetchers: fetchers,
		cache:    cache,
		log:      logger.WithComponent("poller"),
		pollers:  xsync.NewMapOf[string, *pollState](),
	}
}

// Start begins polling the item at the given interval. Returns an error
// if a poller for the item is already running or the ref is invalid.
// The first tick's window opens at the time Start is called.
func (p *LivePoller) Start(item ItemRef, interval time.Duration, callback func(InteractionStats)) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("cannot poll invalid item: %w", err)
	}

	key := item.CacheKey()
	ctx, cancel := context.WithCancel(context.Background())
	ps := &pollState{
		item:   item,
		since:  nostr.Now(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	if _, loaded := p.pollers.LoadOrStore(key, ps); loaded {
		cancel()
		return fmt.Errorf("live poller already running for %s", key)
	}

	p.log.Info("live poller started", "key", key, "interval", interval)
	go p.run(ctx, key, ps, interval, callback)
	return nil
}

// Stop cancels the item's timer and discards its poll state. Stopping a
// poller that never started is not an error, but it is logged.
func (p *LivePoller) Stop(item ItemRef) {
	key := item.CacheKey()
	ps, ok := p.pollers.LoadAndDelete(key)
	if !ok {
		p.log.Warn("stop requested for unknown live poller", "key", key)
		return
	}
	ps.cancel()
	p.log.Info("live poller stopped", "key", key)
}

// StopAll cancels every running poller
func (p *LivePoller) StopAll() {
	p.pollers.Range(func(key string, ps *pollState) bool {
		if _, ok := p.pollers.LoadAndDelete(key); ok {
			ps.cancel()
		}
		return true
	})
}

// IsRunning reports whether a poller exists for the item
func (p *LivePoller) IsRunning(item ItemRef) bool {
	_, ok := p.pollers.Load(item.CacheKey())
	return ok
}

func (p *LivePoller) run(ctx context.Context, key string, ps *pollState, interval time.Duration, callback func(InteractionStats)) {
	defer close(ps.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, key, ps, callback)
		}
	}
}

// tick queries the window since the last tick and merges new reactions
// into the cached snapshot. The window always advances, found events or
// not, so it never grows without bound.
func (p *LivePoller) tick(ctx context.Context, key string, ps *pollState, callback func(InteractionStats)) {
	since := ps.since
	until := nostr.Now()

	events, err := p.fetchers.ReactionsWindow(ctx, ps.item, since, until)
	ps.since = until

	p.log.LogPollTick(key, int64(since), int64(until), len(events), err)
	if err != nil && len(events) == 0 {
		return
	}

	// A fetch result arriving after Stop must not resurrect the poller;
	// merge only while this state is still registered.
	if current, ok := p.pollers.Load(key); !ok || current != ps {
		return
	}

	merged := p.cache.MergeReactions(ps.item, events)
	if merged == nil {
		// Entry expired or was invalidated; nothing to merge into.
		// The next GetStats rebuilds it.
		return
	}

	if callback != nil {
		callback(merged.Summarize())
	}
}
