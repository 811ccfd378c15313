package interactions

import (
	"context"
	"errors"
	"testing"

	"github.com/nbd-wtf/go-nostr"
)

func TestReactionsDedupByAuthorFirstWins(t *testing.T) {
	item := simpleItem()
	first := reactionEvent(hexID('1'), hexID('b'), item.ID)
	later := reactionEvent(hexID('2'), hexID('b'), item.ID)
	other := reactionEvent(hexID('3'), hexID('c'), item.ID)

	ft := &fakeTransport{respond: func([]nostr.Filter) []*nostr.Event {
		return []*nostr.Event{first, later, other}
	}}
	f := NewFetchers(ft, testRelays, testConfig(), testLogger())

	events, err := f.Reactions(context.Background(), item)
	if err != nil {
		t.Fatalf("Reactions() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d reactions, want 2", len(events))
	}
	if events[0].ID != first.ID {
		t.Errorf("first received should win, got %s", events[0].ID)
	}
}

func TestRepliesDedupByEventID(t *testing.T) {
	item := simpleItem()
	one := replyEvent(hexID('1'), hexID('b'), item.ID)
	duplicate := replyEvent(hexID('1'), hexID('b'), item.ID)
	two := replyEvent(hexID('2'), hexID('b'), item.ID)

	ft := &fakeTransport{respond: func([]nostr.Filter) []*nostr.Event {
		return []*nostr.Event{one, duplicate, two}
	}}
	f := NewFetchers(ft, testRelays, testConfig(), testLogger())

	events, err := f.Replies(context.Background(), item)
	if err != nil {
		t.Fatalf("Replies() error = %v", err)
	}
	// Same author twice is fine for replies; same event ID is not.
	if len(events) != 2 {
		t.Fatalf("got %d replies, want 2", len(events))
	}
}

func TestRepliesRejectNonReferencingEvents(t *testing.T) {
	item := simpleItem()
	good := replyEvent(hexID('1'), hexID('b'), item.ID)
	stray := replyEvent(hexID('2'), hexID('c'), hexID('d'))
	quote := &nostr.Event{
		ID:     hexID('3'),
		PubKey: hexID('e'),
		Kind:   KindNote,
		Tags:   nostr.Tags{{"q", item.ID}},
	}

	ft := &fakeTransport{respond: func([]nostr.Filter) []*nostr.Event {
		return []*nostr.Event{good, stray, quote}
	}}
	f := NewFetchers(ft, testRelays, testConfig(), testLogger())

	events, err := f.Replies(context.Background(), item)
	if err != nil {
		t.Fatalf("Replies() error = %v", err)
	}
	if len(events) != 1 || events[0].ID != good.ID {
		t.Fatalf("expected only the referencing reply, got %d events", len(events))
	}
}

func TestQuoteRepostsRequireQuoteTag(t *testing.T) {
	item := simpleItem()
	quote := &nostr.Event{
		ID:     hexID('1'),
		PubKey: hexID('b'),
		Kind:   KindNote,
		Tags:   nostr.Tags{{"q", item.ID}},
	}
	plainReply := replyEvent(hexID('2'), hexID('c'), item.ID)

	ft := &fakeTransport{respond: func([]nostr.Filter) []*nostr.Event {
		return []*nostr.Event{quote, plainReply}
	}}
	f := NewFetchers(ft, testRelays, testConfig(), testLogger())

	events, err := f.QuoteReposts(context.Background(), item)
	if err != nil {
		t.Fatalf("QuoteReposts() error = %v", err)
	}
	if len(events) != 1 || events[0].ID != quote.ID {
		t.Fatalf("expected only the q-tagged note, got %d events", len(events))
	}
}

func TestReferenceFiltersSimpleItem(t *testing.T) {
	item := simpleItem()
	ft := &fakeTransport{}
	f := NewFetchers(ft, testRelays, testConfig(), testLogger())

	if _, err := f.Reactions(context.Background(), item); err != nil {
		t.Fatalf("Reactions() error = %v", err)
	}

	filters := ft.allFilters()
	if len(filters) != 1 {
		t.Fatalf("got %d filters, want 1", len(filters))
	}
	filter := filters[0]
	if len(filter.Kinds) != 1 || filter.Kinds[0] != KindReaction {
		t.Errorf("kinds = %v, want [%d]", filter.Kinds, KindReaction)
	}
	if got := filter.Tags["e"]; len(got) != 1 || got[0] != item.ID {
		t.Errorf("e tag filter = %v, want [%s]", got, item.ID)
	}
	if filter.Limit != 100 {
		t.Errorf("limit = %d, want 100", filter.Limit)
	}
}

func TestReferenceFiltersAddressableItem(t *testing.T) {
	item := ItemRef{
		Kind:           30023,
		Pubkey:         hexID('b'),
		Identifier:     "post",
		ArticleEventID: hexID('c'),
	}
	ft := &fakeTransport{}
	f := NewFetchers(ft, testRelays, testConfig(), testLogger())

	if _, err := f.Reactions(context.Background(), item); err != nil {
		t.Fatalf("Reactions() error = %v", err)
	}

	filters := ft.allFilters()
	if len(filters) != 2 {
		t.Fatalf("got %d filters, want 2 (coordinate + companion event id)", len(filters))
	}
	if got := filters[0].Tags["a"]; len(got) != 1 || got[0] != item.Coordinate() {
		t.Errorf("a tag filter = %v, want [%s]", got, item.Coordinate())
	}
	if got := filters[1].Tags["e"]; len(got) != 1 || got[0] != item.ArticleEventID {
		t.Errorf("e tag filter = %v, want [%s]", got, item.ArticleEventID)
	}
}

func TestAddressableDedupAcrossBothFilters(t *testing.T) {
	item := ItemRef{
		Kind:           30023,
		Pubkey:         hexID('b'),
		Identifier:     "post",
		ArticleEventID: hexID('c'),
	}
	// One author reacted to the coordinate and to the companion event;
	// only the first survives.
	viaCoordinate := &nostr.Event{
		ID:     hexID('1'),
		PubKey: hexID('d'),
		Kind:   KindReaction,
		Tags:   nostr.Tags{{"a", item.Coordinate()}},
	}
	viaEventID := &nostr.Event{
		ID:     hexID('2'),
		PubKey: hexID('d'),
		Kind:   KindReaction,
		Tags:   nostr.Tags{{"e", item.ArticleEventID}},
	}

	ft := &fakeTransport{respond: func([]nostr.Filter) []*nostr.Event {
		return []*nostr.Event{viaCoordinate, viaEventID}
	}}
	f := NewFetchers(ft, testRelays, testConfig(), testLogger())

	events, err := f.Reactions(context.Background(), item)
	if err != nil {
		t.Fatalf("Reactions() error = %v", err)
	}
	if len(events) != 1 || events[0].ID != viaCoordinate.ID {
		t.Fatalf("expected cross-filter dedup to one event, got %d", len(events))
	}
}

func TestFetchErrorReturnsCollectedEvents(t *testing.T) {
	item := simpleItem()
	ft := &fakeTransport{err: errors.New("relay unreachable")}
	f := NewFetchers(ft, testRelays, testConfig(), testLogger())

	events, err := f.Reactions(context.Background(), item)
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0", len(events))
	}
}

func TestReactionsWindowSetsBounds(t *testing.T) {
	item := simpleItem()
	ft := &fakeTransport{}
	f := NewFetchers(ft, testRelays, testConfig(), testLogger())

	since := nostr.Timestamp(1000)
	until := nostr.Timestamp(2000)
	if _, err := f.ReactionsWindow(context.Background(), item, since, until); err != nil {
		t.Fatalf("ReactionsWindow() error = %v", err)
	}

	filters := ft.allFilters()
	if len(filters) != 1 {
		t.Fatalf("got %d filters, want 1", len(filters))
	}
	if filters[0].Since == nil || *filters[0].Since != since {
		t.Errorf("since = %v, want %d", filters[0].Since, since)
	}
	if filters[0].Until == nil || *filters[0].Until != until {
		t.Errorf("until = %v, want %d", filters[0].Until, until)
	}
}

func TestFetchSkipsNilEvents(t *testing.T) {
	item := simpleItem()
	ft := &fakeTransport{respond: func([]nostr.Filter) []*nostr.Event {
		return []*nostr.Event{nil, reactionEvent(hexID('1'), hexID('b'), item.ID)}
	}}
	f := NewFetchers(ft, testRelays, testConfig(), testLogger())

	events, err := f.Reactions(context.Background(), item)
	if err != nil {
		t.Fatalf("Reactions() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
}
