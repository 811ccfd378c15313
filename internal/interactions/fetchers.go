package interactions

import (
	"context"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/htsula/noornote/internal/config"
	"github.com/htsula/noornote/internal/ops"
)

// Transport is the relay access the engine consumes. Implementations
// fetch events from a set of endpoints, deduplicated by event ID,
// best-effort within the context deadline.
type Transport interface {
	FetchEvents(ctx context.Context, relays []string, filters ...nostr.Filter) ([]*nostr.Event, error)
}

// Fetchers issues per-category queries against the transport and applies
// category-specific deduplication. A failed or timed-out category never
// fails the caller: it yields whatever arrived (possibly nothing) plus
// the error for status bookkeeping.
type Fetchers struct {
	transport Transport
	relays    []string
	cfg       *config.Interactions
	log       *ops.Logger
}

// NewFetchers creates category fetchers over the given transport and relay set
func NewFetchers(transport Transport, relays []string, cfg *config.Interactions, logger *ops.Logger) *Fetchers {
	if logger == nil {
		logger = ops.Default()
	}
	return &Fetchers{
		transport: transport,
		relays:    relays,
		cfg:       cfg,
		log:       logger.WithComponent("fetchers"),
	}
}

// Reactions fetches kind 7 reactions to the item, one per author,
// first received wins.
func (f *Fetchers) Reactions(ctx context.Context, item ItemRef) ([]*nostr.Event, error) {
	filters := f.referenceFilters(item, []int{KindReaction}, "e", "a")
	return f.fetch(ctx, "reactions", f.cfg.FetchTimeout(), filters, nil, authorKey)
}

// Reposts fetches kind 6 direct reposts of the item, one per author.
func (f *Fetchers) Reposts(ctx context.Context, item ItemRef) ([]*nostr.Event, error) {
	filters := f.referenceFilters(item, []int{KindRepost}, "e", "a")
	return f.fetch(ctx, "reposts", f.cfg.FetchTimeout(), filters, nil, authorKey)
}

// QuoteReposts fetches kind 1 notes quoting the item via a "q" tag,
// one per author.
func (f *Fetchers) QuoteReposts(ctx context.Context, item ItemRef) ([]*nostr.Event, error) {
	filters := f.referenceFilters(item, []int{KindNote}, "q", "q")
	return f.fetch(ctx, "quote_reposts", f.cfg.FetchTimeout(), filters, func(ev *nostr.Event) bool {
		return quotesItem(ev, item)
	}, authorKey)
}

// Replies fetches kind 1 replies to the item, deduplicated by event ID.
// Each candidate is independently re-checked to carry a reference tag
// pointing at the target.
func (f *Fetchers) Replies(ctx context.Context, item ItemRef) ([]*nostr.Event, error) {
	filters := f.referenceFilters(item, []int{KindNote}, "e", "a")
	return f.fetch(ctx, "replies", f.cfg.FetchTimeout(), filters, func(ev *nostr.Event) bool {
		return referencesItem(ev, item)
	}, identityKey)
}

// ZapReceipts fetches kind 9735 zap receipts for the item, deduplicated
// by event ID. Receipts arrive more slowly than other categories and get
// a longer timeout.
func (f *Fetchers) ZapReceipts(ctx context.Context, item ItemRef) ([]*nostr.Event, error) {
	filters := f.referenceFilters(item, []int{KindZapReceipt}, "e", "a")
	return f.fetch(ctx, "zap_receipts", f.cfg.ZapFetchTimeout(), filters, nil, identityKey)
}

// ReactionsWindow fetches reactions created inside [since, until),
// used by the live poller for incremental updates.
func (f *Fetchers) ReactionsWindow(ctx context.Context, item ItemRef, since, until nostr.Timestamp) ([]*nostr.Event, error) {
	filters := f.referenceFilters(item, []int{KindReaction}, "e", "a")
	for i := range filters {
		s, u := since, until
		filters[i].Since = &s
		filters[i].Until = &u
	}
	return f.fetch(ctx, "reactions_window", f.cfg.FetchTimeout(), filters, nil, authorKey)
}

// referenceFilters builds the query filter set for one category. A simple
// item needs a single reference-tag predicate; an addressable item needs
// two, the coordinate tag plus the companion event ID when present,
// because publishers reference addressable items inconsistently and
// omitting either filter silently loses events. Every filter carries a
// reference-tag constraint; unbounded kind-only queries are forbidden.
func (f *Fetchers) referenceFilters(item ItemRef, kinds []int, idTag, addrTag string) []nostr.Filter {
	limit := f.cfg.QueryLimit

	if !item.IsAddressable() {
		return []nostr.Filter{{
			Kinds: kinds,
			Tags:  nostr.TagMap{idTag: []string{item.ID}},
			Limit: limit,
		}}
	}

	filters := []nostr.Filter{{
		Kinds: kinds,
		Tags:  nostr.TagMap{addrTag: []string{item.Coordinate()}},
		Limit: limit,
	}}

	if item.ArticleEventID != "" {
		filters = append(filters, nostr.Filter{
			Kinds: kinds,
			Tags:  nostr.TagMap{idTag: []string{item.ArticleEventID}},
			Limit: limit,
		})
	}

	return filters
}

// fetch runs one category query with its own timeout, applies the accept
// re-check and first-seen dedup, and logs the outcome. Events collected
// before a timeout are kept; the error is reported alongside them.
func (f *Fetchers) fetch(ctx context.Context, category string, timeout time.Duration, filters []nostr.Filter, accept func(*nostr.Event) bool, key func(*nostr.Event) string) ([]*nostr.Event, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	events, err := f.transport.FetchEvents(fetchCtx, f.relays, filters...)

	kept := make([]*nostr.Event, 0, len(events))
	seen := make(map[string]bool, len(events))
	for _, event := range events {
		if event == nil {
			continue
		}
		if accept != nil && !accept(event) {
			continue
		}
		k := key(event)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		kept = append(kept, event)
	}

	f.log.LogFetchOperation(category, len(f.relays), len(kept), time.Since(start), err)
	return kept, err
}

// authorKey dedups by author identity: at most one entry survives per
// author, first received wins. Preserved from the source behavior even
// though it discards later events from the same author.
func authorKey(event *nostr.Event) string {
	return event.PubKey
}

// identityKey dedups by event identity: duplicates across relays
// collapse, genuine multiple events from one author are all retained.
func identityKey(event *nostr.Event) string {
	return event.ID
}
