package sink

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/metermon/internal/reading"
)

func TestJSONLinesWrite(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONLines(&buf)
	require.NoError(t, j.Open(context.Background()))

	require.NoError(t, j.Write(hubReading()))
	require.NoError(t, j.Write(sensorReading()))
	require.NoError(t, j.Close())

	assert.Equal(t,
		`{"time":1700000000,"location":"living room","id":"hub-1","rssi":-67,"temp":2.5,"humidity":44,"light":12}`+"\n"+
			`{"time":1700000005,"location":"garden","id":"outdoor-1","rssi":-80,"temp":-1.5,"humidity":90}`+"\n",
		buf.String())
}

// Each written line must parse back into the same reading; the relay depends
// on this.
func TestJSONLinesRoundTripsThroughParse(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONLines(&buf)
	require.NoError(t, j.Open(context.Background()))
	require.NoError(t, j.Write(hubReading()))

	parsed, err := reading.ParseLine(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	require.NoError(t, err)
	assert.Equal(t, hubReading(), parsed)
}
