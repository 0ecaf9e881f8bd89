// Package profile loads the static BLE address -> device metadata mapping.
//
// The mapping is read once at startup from a YAML file keyed by BLE address:
//
//	"DE:AD:BE:EF:00:01":
//	  type: sensor
//	  location: garden
//	  id: outdoor-1
//
// The map is treated as read-only after load.
package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Kind distinguishes the two payload layouts sharing the radio protocol.
type Kind string

const (
	KindHub    Kind = "hub"
	KindSensor Kind = "sensor"
)

// Device is the static metadata for one known BLE address.
type Device struct {
	Address  string
	Kind     Kind
	Location string
	ID       string
}

// Set maps a BLE address to its device metadata.
type Set map[string]Device

// Lookup returns the device for addr, if known.
func (s Set) Lookup(addr string) (Device, bool) {
	d, ok := s[addr]
	return d, ok
}

// Addresses returns the known BLE addresses.
func (s Set) Addresses() []string {
	addrs := make([]string, 0, len(s))
	for a := range s {
		addrs = append(addrs, a)
	}
	return addrs
}

type yamlDevice struct {
	Type     string `yaml:"type"`
	Location string `yaml:"location"`
	ID       string `yaml:"id"`
}

// Load reads the device map from path. An unrecognized device type is a
// startup error, not a fallback.
func Load(path string) (Set, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read device map: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML device map.
func Parse(raw []byte) (Set, error) {
	var entries map[string]yamlDevice
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse device map: %w", err)
	}

	set := make(Set, len(entries))
	for addr, e := range entries {
		kind := Kind(e.Type)
		switch kind {
		case KindHub, KindSensor:
		default:
			return nil, fmt.Errorf("device %s: unknown type %q (must be %q or %q)",
				addr, e.Type, KindHub, KindSensor)
		}
		set[addr] = Device{
			Address:  addr,
			Kind:     kind,
			Location: e.Location,
			ID:       e.ID,
		}
	}
	return set, nil
}
