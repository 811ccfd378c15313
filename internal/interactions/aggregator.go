package interactions

import (
	"context"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/htsula/noornote/internal/ops"
)

// Aggregator runs all category fetches for one item concurrently and
// assembles the results into a DetailedStats snapshot. Callers receive
// either a complete snapshot or nothing; no partial results leak while
// a fetch is outstanding.
type Aggregator struct {
	fetchers *Fetchers
	log      *ops.Logger
}

// NewAggregator creates an aggregator over the given fetchers
func NewAggregator(fetchers *Fetchers, logger *ops.Logger) *Aggregator {
	if logger == nil {
		logger = ops.Default()
	}
	return &Aggregator{
		fetchers: fetchers,
		log:      logger.WithComponent("aggregator"),
	}
}

type categoryResult struct {
	events []*nostr.Event
	err    error
}

// Aggregate fetches all five interaction categories in parallel and
// waits until every one has settled. Each category carries its own
// timeout; a slow category never blocks the others beyond it. Category
// failures degrade to empty collections and only affect the Status field.
func (a *Aggregator) Aggregate(ctx context.Context, item ItemRef) *DetailedStats {
	start := time.Now()

	categories := []func(context.Context, ItemRef) ([]*nostr.Event, error){
		a.fetchers.Replies,
		a.fetchers.Reposts,
		a.fetchers.QuoteReposts,
		a.fetchers.Reactions,
		a.fetchers.ZapReceipts,
	}

	results := make([]categoryResult, len(categories))

	var wg sync.WaitGroup
	for i, fetch := range categories {
		wg.Add(1)
		go func(i int, fetch func(context.Context, ItemRef) ([]*nostr.Event, error)) {
			defer wg.Done()
			events, err := fetch(ctx, item)
			results[i] = categoryResult{events: events, err: err}
		}(i, fetch)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
		}
	}

	status := FetchComplete
	switch {
	case failed == len(results):
		status = FetchFailed
	case failed > 0:
		status = FetchPartial
	}

	stats := &DetailedStats{
		Replies:      results[0].events,
		Reposts:      results[1].events,
		QuoteReposts: results[2].events,
		Reactions:    results[3].events,
		ZapReceipts:  results[4].events,
		Status:       status,
		UpdatedAt:    nostr.Now(),
	}

	a.log.LogAggregation(item.CacheKey(), status.String(), time.Since(start))
	return stats
}
