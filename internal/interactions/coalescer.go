package interactions

import (
	"golang.org/x/sync/singleflight"
)

// coalescer guarantees at most one in-flight aggregation per item key.
// Concurrent callers for the same key attach to the pending call and
// share its result; the registration is removed once the call settles,
// success or failure, so a failed factory never wedges the key.
type coalescer struct {
	group singleflight.Group
}

// do runs fn for key unless a call for key is already in flight, in
// which case it waits for and returns that call's result.
func (c *coalescer) do(key string, fn func() (*DetailedStats, error)) (*DetailedStats, error) {
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return v.(*DetailedStats), nil
}
