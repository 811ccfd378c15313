package interactions

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/htsula/noornote/internal/config"
	"github.com/htsula/noornote/internal/ops"
)

// fakeTransport records calls and answers from a canned respond func
type fakeTransport struct {
	mu      sync.Mutex
	calls   int
	filters [][]nostr.Filter
	respond func(filters []nostr.Filter) []*nostr.Event
	err     error
	delay   time.Duration
}

func (ft *fakeTransport) FetchEvents(ctx context.Context, relays []string, filters ...nostr.Filter) ([]*nostr.Event, error) {
	ft.mu.Lock()
	ft.calls++
	ft.filters = append(ft.filters, filters)
	respond := ft.respond
	err := ft.err
	delay := ft.delay
	ft.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}
	if respond == nil {
		return nil, nil
	}
	return respond(filters), nil
}

func (ft *fakeTransport) callCount() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.calls
}

func (ft *fakeTransport) allFilters() []nostr.Filter {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	flat := make([]nostr.Filter, 0)
	for _, fs := range ft.filters {
		flat = append(flat, fs...)
	}
	return flat
}

func testConfig() *config.Interactions {
	return &config.Interactions{
		FetchTimeoutMs:      1000,
		ZapFetchTimeoutMs:   1000,
		CacheTTLSeconds:     300,
		PollIntervalSeconds: 1,
		QueryLimit:          100,
	}
}

func testLogger() *ops.Logger {
	return ops.NewLoggerWithWriter(&config.Logging{Level: "error", Format: "text"}, io.Discard)
}

var testRelays = []string{"wss://relay1.test", "wss://relay2.test"}

func hexID(c byte) string {
	return strings.Repeat(string(c), 64)
}

func simpleItem() ItemRef {
	return ItemRef{ID: hexID('a')}
}

func reactionEvent(id, author, target string) *nostr.Event {
	return &nostr.Event{
		ID:        id,
		PubKey:    author,
		Kind:      KindReaction,
		CreatedAt: nostr.Now(),
		Content:   "+",
		Tags:      nostr.Tags{{"e", target}},
	}
}

func replyEvent(id, author, target string) *nostr.Event {
	return &nostr.Event{
		ID:        id,
		PubKey:    author,
		Kind:      KindNote,
		CreatedAt: nostr.Now(),
		Content:   "a reply",
		Tags:      nostr.Tags{{"e", target, "", "reply"}},
	}
}

func zapReceiptEvent(id, author, target, invoice string) *nostr.Event {
	return &nostr.Event{
		ID:        id,
		PubKey:    author,
		Kind:      KindZapReceipt,
		CreatedAt: nostr.Now(),
		Tags:      nostr.Tags{{"e", target}, {"bolt11", invoice}},
	}
}

// respondByCategory routes canned events per category the way a relay
// set would: by the kinds and tag predicates of each filter.
func respondByCategory(reactions, reposts, quotes, replies, zaps []*nostr.Event) func([]nostr.Filter) []*nostr.Event {
	return func(filters []nostr.Filter) []*nostr.Event {
		out := make([]*nostr.Event, 0)
		for _, f := range filters {
			if len(f.Kinds) == 0 {
				continue
			}
			switch f.Kinds[0] {
			case KindReaction:
				out = append(out, reactions...)
			case KindRepost:
				out = append(out, reposts...)
			case KindZapReceipt:
				out = append(out, zaps...)
			case KindNote:
				if _, ok := f.Tags["q"]; ok {
					out = append(out, quotes...)
				} else {
					out = append(out, replies...)
				}
			}
		}
		return out
	}
}
