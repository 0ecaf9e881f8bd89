package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
"DE:AD:BE:EF:00:01":
  type: sensor
  location: garden
  id: outdoor-1
"DE:AD:BE:EF:00:02":
  type: hub
  location: living room
  id: hub-1
`

func TestParse(t *testing.T) {
	set, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, set, 2)

	sensor, ok := set.Lookup("DE:AD:BE:EF:00:01")
	require.True(t, ok)
	assert.Equal(t, KindSensor, sensor.Kind)
	assert.Equal(t, "garden", sensor.Location)
	assert.Equal(t, "outdoor-1", sensor.ID)
	assert.Equal(t, "DE:AD:BE:EF:00:01", sensor.Address)

	hub, ok := set.Lookup("DE:AD:BE:EF:00:02")
	require.True(t, ok)
	assert.Equal(t, KindHub, hub.Kind)
	assert.Equal(t, "living room", hub.Location)
}

func TestParseRejectsUnknownType(t *testing.T) {
	_, err := Parse([]byte(`
"DE:AD:BE:EF:00:03":
  type: toaster
  location: kitchen
  id: t-1
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toaster")
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("\t not yaml"))
	assert.Error(t, err)
}

func TestLookupUnknownAddress(t *testing.T) {
	set, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	_, ok := set.Lookup("11:22:33:44:55:66")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	set, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, set, 2)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
