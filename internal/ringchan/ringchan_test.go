package ringchan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndReceive(t *testing.T) {
	r := New[int](3)

	assert.False(t, r.Send(1))
	assert.False(t, r.Send(2))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 3, r.Cap())

	assert.Equal(t, 1, <-r.C())
	assert.Equal(t, 2, <-r.C())
}

// A full ring discards the oldest element instead of blocking the producer.
func TestSendOverwritesOldest(t *testing.T) {
	r := New[int](3)

	for i := 1; i <= 5; i++ {
		r.Send(i)
	}

	assert.EqualValues(t, 2, r.Dropped())
	assert.Equal(t, 3, <-r.C())
	assert.Equal(t, 4, <-r.C())
	assert.Equal(t, 5, <-r.C())
}

func TestSendReportsDrop(t *testing.T) {
	r := New[int](1)

	assert.False(t, r.Send(1))
	assert.True(t, r.Send(2))
}

func TestCloseEndsRange(t *testing.T) {
	r := New[int](2)
	r.Send(7)
	r.Close()

	var got []int
	for v := range r.C() {
		got = append(got, v)
	}
	assert.Equal(t, []int{7}, got)
}

func TestZeroCapacityPanics(t *testing.T) {
	require.Panics(t, func() { New[int](0) })
}
