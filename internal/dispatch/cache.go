package dispatch

import (
	"github.com/cornelk/hashmap"

	"github.com/srg/metermon/internal/decode"
)

// lastSeen is the comparison key for change detection. Absence of light is
// part of the key: a hub reporting light 0 never compares equal to a sensor
// reading with no light gauge.
type lastSeen struct {
	temp     float64
	humidity int
	light    int
	hasLight bool
}

// Cache remembers the last emitted value tuple per device address and
// decides whether a new observation is worth emitting. Comparison is exact;
// the decoder is deterministic, so unchanged bytes produce an identical
// tuple.
//
// The cache is process-scoped and resets on restart. With emitAll set every
// observation is treated as new (a steady heartbeat for downstream
// consumers) while the stored tuple is still updated identically.
type Cache struct {
	last    *hashmap.Map[string, lastSeen]
	emitAll bool
}

// NewCache creates an empty cache. emitAll bypasses suppression.
func NewCache(emitAll bool) *Cache {
	return &Cache{
		last:    hashmap.New[string, lastSeen](),
		emitAll: emitAll,
	}
}

// ShouldEmit reports whether values differ from the last emitted tuple for
// addr. Whenever the decision is emit, the stored tuple is updated. The
// first observation for an address always emits.
func (c *Cache) ShouldEmit(addr string, v decode.Values) bool {
	cur := lastSeen{temp: v.TempC, humidity: v.Humidity}
	if v.Light != nil {
		cur.light = *v.Light
		cur.hasLight = true
	}

	if prev, seen := c.last.Get(addr); seen && prev == cur && !c.emitAll {
		return false
	}
	c.last.Set(addr, cur)
	return true
}
