package nostr

import "errors"

// ErrEventNotFound is returned when no relay holds the requested event
var ErrEventNotFound = errors.New("event not found on any relay")
