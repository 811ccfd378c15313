package nostr

import (
	"context"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/htsula/noornote/internal/config"
	"github.com/htsula/noornote/internal/ops"
)

// Client provides a high-level interface for interacting with Nostr relays.
// Events are assumed signature-verified by the underlying pool; the client
// only deduplicates them across relays.
type Client struct {
	pool        *nostr.SimplePool
	relayConfig *config.Relays
	log         *ops.Logger
	ctx         context.Context
}

// New creates a new Nostr client with the given configuration
func New(ctx context.Context, relayConfig *config.Relays, logger *ops.Logger) *Client {
	if logger == nil {
		logger = ops.Default()
	}
	pool := nostr.NewSimplePool(ctx)
	return &Client{
		pool:        pool,
		relayConfig: relayConfig,
		log:         logger.WithComponent("nostr"),
		ctx:         ctx,
	}
}

// Pool returns the underlying SimplePool for advanced operations
func (c *Client) Pool() *nostr.SimplePool {
	return c.pool
}

// FetchEvents fetches events from the given relays matching the filters.
// Results are deduplicated by event ID across relays. The call is
// best-effort within the context deadline: events collected before a
// timeout are returned alongside the context error.
func (c *Client) FetchEvents(ctx context.Context, relays []string, filters ...nostr.Filter) ([]*nostr.Event, error) {
	events := make([]*nostr.Event, 0)
	seen := make(map[string]bool)

	// SubManyEose returns events until every relay reports EOSE or the
	// context expires, whichever comes first.
	for relayEvent := range c.pool.SubManyEose(ctx, relays, nostr.Filters(filters)) {
		if relayEvent.Event == nil {
			continue
		}
		if seen[relayEvent.Event.ID] {
			continue
		}
		seen[relayEvent.Event.ID] = true
		events = append(events, relayEvent.Event)
	}

	return events, ctx.Err()
}

// FetchEvent fetches a single event by ID from the given relays
func (c *Client) FetchEvent(ctx context.Context, relays []string, eventID string) (*nostr.Event, error) {
	filter := nostr.Filter{
		IDs:   []string{eventID},
		Limit: 1,
	}

	result := c.pool.QuerySingle(ctx, relays, filter)
	if result == nil || result.Event == nil {
		return nil, ErrEventNotFound
	}

	return result.Event, nil
}

// SubscribeEvents subscribes to events matching the filters on the given relays.
// Returns a channel of events that will be closed when the context is cancelled.
func (c *Client) SubscribeEvents(ctx context.Context, relays []string, filters nostr.Filters) <-chan *nostr.Event {
	eventChan := make(chan *nostr.Event, 100)

	go func() {
		defer close(eventChan)

		c.log.Debug("starting subscription",
			"relays", len(relays),
			"filters", len(filters))

		eventCount := 0
		for relayEvent := range c.pool.SubMany(ctx, relays, filters) {
			if relayEvent.Event == nil {
				continue
			}
			eventCount++

			select {
			case eventChan <- relayEvent.Event:
			case <-ctx.Done():
				c.log.Debug("subscription cancelled",
					"events_received", eventCount)
				return
			}
		}

		c.log.Debug("subscription closed",
			"events_received", eventCount)
	}()

	return eventChan
}

// Close closes all relay connections
func (c *Client) Close() {
	c.pool.Close("client shutting down")
}

// GetSeedRelays returns the configured seed relays
func (c *Client) GetSeedRelays() []string {
	if c.relayConfig == nil {
		return []string{}
	}
	return c.relayConfig.Seeds
}

// GetDefaultTimeout returns the configured timeout duration
func (c *Client) GetDefaultTimeout() time.Duration {
	if c.relayConfig == nil || c.relayConfig.Policy.ConnectTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.relayConfig.Policy.ConnectTimeoutMs) * time.Millisecond
}
