package interactions

import (
	"fmt"

	"github.com/nbd-wtf/go-nostr"
)

// Event kinds the engine aggregates
const (
	KindNote       = 1
	KindRepost     = 6
	KindReaction   = 7
	KindZapReceipt = 9735
)

// ItemRef identifies the item whose interactions are being aggregated.
// Exactly one of the two forms is active: a simple event ID, or an
// addressable (kind, pubkey, identifier) coordinate. An addressable ref
// may carry the event ID of the revision that published it; it only
// widens the search, some publishers reference the article by that ID
// instead of the coordinate.
type ItemRef struct {
	ID string // simple item: 64-char hex event ID

	Kind       int    // addressable item kind (e.g. 30023)
	Pubkey     string // addressable item owner
	Identifier string // addressable item "d" tag slug

	ArticleEventID string // optional companion event ID for addressable items
}

// IsAddressable returns true if this ref uses the coordinate form
func (r ItemRef) IsAddressable() bool {
	return r.Kind > 0 && r.Pubkey != ""
}

// Coordinate returns the "kind:pubkey:identifier" address of an addressable item
func (r ItemRef) Coordinate() string {
	return fmt.Sprintf("%d:%s:%s", r.Kind, r.Pubkey, r.Identifier)
}

// CacheKey returns the canonical cache key for this ref
func (r ItemRef) CacheKey() string {
	if r.IsAddressable() {
		return r.Coordinate()
	}
	return r.ID
}

// Validate checks that exactly one identifier form is active and well-formed
func (r ItemRef) Validate() error {
	if r.IsAddressable() {
		if r.ID != "" {
			return fmt.Errorf("item ref has both event ID and coordinate")
		}
		if !isHex(r.Pubkey, 64) {
			return fmt.Errorf("addressable item has invalid pubkey %q", r.Pubkey)
		}
		if r.Identifier == "" {
			return fmt.Errorf("addressable item is missing identifier")
		}
		if r.ArticleEventID != "" && !isHex(r.ArticleEventID, 64) {
			return fmt.Errorf("addressable item has invalid article event ID %q", r.ArticleEventID)
		}
		return nil
	}

	if r.Pubkey != "" || r.Identifier != "" || r.ArticleEventID != "" {
		return fmt.Errorf("simple item ref carries addressable fields")
	}
	if !isHex(r.ID, 64) {
		return fmt.Errorf("item ref has invalid event ID %q", r.ID)
	}
	return nil
}

func isHex(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// FetchStatus reports how complete an aggregation snapshot is. It is a
// field addition only: a FetchFailed snapshot still carries valid, empty
// collections.
type FetchStatus int

const (
	// FetchComplete means every category fetch settled cleanly
	FetchComplete FetchStatus = iota
	// FetchPartial means at least one category timed out or failed
	FetchPartial
	// FetchFailed means every category failed; indistinguishable from
	// "no interactions" by counts alone
	FetchFailed
)

func (s FetchStatus) String() string {
	switch s {
	case FetchComplete:
		return "complete"
	case FetchPartial:
		return "partial"
	case FetchFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DetailedStats holds the deduplicated interaction events for one item.
// Collections preserve insertion order. Within each collection no two
// entries share that category's dedup key (author for reactions and
// reposts, event ID for replies and zap receipts). Treat as read-only
// once returned; the cache replaces snapshots instead of mutating them.
type DetailedStats struct {
	Replies      []*nostr.Event
	Reposts      []*nostr.Event
	QuoteReposts []*nostr.Event
	Reactions    []*nostr.Event
	ZapReceipts  []*nostr.Event

	Status    FetchStatus
	UpdatedAt nostr.Timestamp
}

// Summarize derives the summary counters from a detailed snapshot.
// Receipts without a parseable invoice still count toward Zaps and
// contribute zero sats.
func (ds *DetailedStats) Summarize() InteractionStats {
	stats := InteractionStats{
		Replies:      len(ds.Replies),
		Reposts:      len(ds.Reposts),
		QuoteReposts: len(ds.QuoteReposts),
		Likes:        len(ds.Reactions),
		Zaps:         len(ds.ZapReceipts),
		Status:       ds.Status,
		UpdatedAt:    ds.UpdatedAt,
	}

	for _, receipt := range ds.ZapReceipts {
		stats.ZapSatsTotal += ParseInvoiceSats(receiptInvoice(receipt))
	}

	return stats
}

// InteractionStats is the summary view of a DetailedStats snapshot.
// Always derived, never stored independently.
type InteractionStats struct {
	Replies      int
	Reposts      int
	QuoteReposts int
	Likes        int
	Zaps         int
	ZapSatsTotal int64

	Status    FetchStatus
	UpdatedAt nostr.Timestamp
}

// HasInteractions returns true if the item has any interactions
func (is InteractionStats) HasInteractions() bool {
	return is.Replies > 0 || is.Reposts > 0 || is.QuoteReposts > 0 ||
		is.Likes > 0 || is.Zaps > 0
}

// firstTagValue returns the value of the first tag with the given name
func firstTagValue(event *nostr.Event, name string) string {
	for _, tag := range event.Tags {
		if len(tag) >= 2 && tag[0] == name {
			return tag[1]
		}
	}
	return ""
}

// receiptInvoice extracts the bolt11 invoice from a zap receipt. Falls
// back to the event content, some wallets put the invoice there.
func receiptInvoice(event *nostr.Event) string {
	if invoice := firstTagValue(event, "bolt11"); invoice != "" {
		return invoice
	}
	return event.Content
}

// referencesItem re-checks that an event actually carries an "e" or "a"
// reference tag pointing at the target item. Tag sets are untrusted;
// relays can return events whose filters matched on spoofed or malformed
// tags.
func referencesItem(event *nostr.Event, item ItemRef) bool {
	return hasReferenceTag(event, item, "e", "a")
}

// quotesItem is the quote repost variant: the reference lives in a "q" tag.
func quotesItem(event *nostr.Event, item ItemRef) bool {
	return hasReferenceTag(event, item, "q", "q")
}

func hasReferenceTag(event *nostr.Event, item ItemRef, idTag, addrTag string) bool {
	for _, tag := range event.Tags {
		if len(tag) < 2 {
			continue
		}
		if tag[0] == idTag {
			if !item.IsAddressable() && tag[1] == item.ID {
				return true
			}
			if item.IsAddressable() && item.ArticleEventID != "" && tag[1] == item.ArticleEventID {
				return true
			}
		}
		if tag[0] == addrTag && item.IsAddressable() && tag[1] == item.Coordinate() {
			return true
		}
	}
	return false
}
