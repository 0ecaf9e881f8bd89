package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/srg/metermon/internal/decode"
	"github.com/srg/metermon/internal/reading"
)

const cacheAddr = "DE:AD:BE:EF:00:01"

func TestCacheFirstObservationAlwaysEmits(t *testing.T) {
	c := NewCache(false)

	assert.True(t, c.ShouldEmit(cacheAddr, decode.Values{TempC: 2.5, Humidity: 44}))
}

func TestCacheSuppressesIdenticalRepeat(t *testing.T) {
	c := NewCache(false)
	v := decode.Values{TempC: 2.5, Humidity: 44}

	assert.True(t, c.ShouldEmit(cacheAddr, v))
	assert.False(t, c.ShouldEmit(cacheAddr, v))
	assert.False(t, c.ShouldEmit(cacheAddr, v))
}

func TestCacheEmitsOnChange(t *testing.T) {
	c := NewCache(false)

	assert.True(t, c.ShouldEmit(cacheAddr, decode.Values{TempC: 2.5, Humidity: 44}))
	assert.True(t, c.ShouldEmit(cacheAddr, decode.Values{TempC: 2.6, Humidity: 44}))
	// The changed value became the stored one.
	assert.False(t, c.ShouldEmit(cacheAddr, decode.Values{TempC: 2.6, Humidity: 44}))
	// ...and the old one counts as a change again.
	assert.True(t, c.ShouldEmit(cacheAddr, decode.Values{TempC: 2.5, Humidity: 44}))
}

func TestCacheAddressesAreIndependent(t *testing.T) {
	c := NewCache(false)
	v := decode.Values{TempC: 2.5, Humidity: 44}

	assert.True(t, c.ShouldEmit("AA:AA:AA:AA:AA:AA", v))
	assert.True(t, c.ShouldEmit("BB:BB:BB:BB:BB:BB", v))
}

func TestCacheEmitAllBypassesSuppression(t *testing.T) {
	c := NewCache(true)
	v := decode.Values{TempC: 2.5, Humidity: 44}

	assert.True(t, c.ShouldEmit(cacheAddr, v))
	assert.True(t, c.ShouldEmit(cacheAddr, v))
	assert.True(t, c.ShouldEmit(cacheAddr, v))
}

// TestCacheLightAbsenceIsDistinct: nil light must not compare equal to any
// concrete light level, including zero and a previously stored level
func TestCacheLightAbsenceIsDistinct(t *testing.T) {
	c := NewCache(false)

	withLight := decode.Values{TempC: 2.5, Humidity: 44, Light: reading.Int(0)}
	withoutLight := decode.Values{TempC: 2.5, Humidity: 44}

	assert.True(t, c.ShouldEmit(cacheAddr, withoutLight))
	assert.True(t, c.ShouldEmit(cacheAddr, withLight), "light 0 differs from absent light")
	assert.True(t, c.ShouldEmit(cacheAddr, withoutLight), "absent light differs from stored light 0")
	assert.False(t, c.ShouldEmit(cacheAddr, withoutLight), "absent light equals prior absent light")
}
