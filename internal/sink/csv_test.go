package sink

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/metermon/internal/reading"
)

func hubReading() *reading.Reading {
	return &reading.Reading{
		Time:     1700000000,
		Location: "living room",
		ID:       "hub-1",
		RSSI:     reading.Int(-67),
		TempC:    reading.Float(2.5),
		Humidity: reading.Int(44),
		Light:    reading.Int(12),
	}
}

func sensorReading() *reading.Reading {
	return &reading.Reading{
		Time:     1700000005,
		Location: "garden",
		ID:       "outdoor-1",
		RSSI:     reading.Int(-80),
		TempC:    reading.Float(-1.5),
		Humidity: reading.Int(90),
	}
}

func TestCSVHeaderFromFirstRecord(t *testing.T) {
	var buf bytes.Buffer
	c := NewCSV(&buf)
	require.NoError(t, c.Open(context.Background()))

	require.NoError(t, c.Write(hubReading()))
	require.NoError(t, c.Close())

	assert.Equal(t,
		"time,location,id,rssi,temp,humidity,light\n"+
			"1700000000,living room,hub-1,-67,2.5,44,12\n",
		buf.String())
}

// The column set is locked by the first record: a later record without a
// light field renders it empty.
func TestCSVMissingFieldRendersEmpty(t *testing.T) {
	var buf bytes.Buffer
	c := NewCSV(&buf)
	require.NoError(t, c.Open(context.Background()))

	require.NoError(t, c.Write(hubReading()))
	require.NoError(t, c.Write(sensorReading()))
	require.NoError(t, c.Close())

	assert.Equal(t,
		"time,location,id,rssi,temp,humidity,light\n"+
			"1700000000,living room,hub-1,-67,2.5,44,12\n"+
			"1700000005,garden,outdoor-1,-80,-1.5,90,\n",
		buf.String())
}

// The inverse lock: a light field appearing after a light-less first record
// is dropped, not appended.
func TestCSVExtraFieldDropped(t *testing.T) {
	var buf bytes.Buffer
	c := NewCSV(&buf)
	require.NoError(t, c.Open(context.Background()))

	require.NoError(t, c.Write(sensorReading()))
	require.NoError(t, c.Write(hubReading()))
	require.NoError(t, c.Close())

	assert.Equal(t,
		"time,location,id,rssi,temp,humidity\n"+
			"1700000005,garden,outdoor-1,-80,-1.5,90\n"+
			"1700000000,living room,hub-1,-67,2.5,44\n",
		buf.String())
}
