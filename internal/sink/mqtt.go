package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/srg/metermon/internal/reading"
)

// Publisher is the capability the MQTT sink needs from a broker client.
// Keeping the sink behind this interface means the paho wiring stays in one
// place and tests can substitute an in-memory implementation.
type Publisher interface {
	Connect(ctx context.Context) error
	Publish(topic string, payload []byte, retain bool) error
	Close()
}

// stateMessage is the published payload: the reading plus a publish
// timestamp and a fixed source marker.
type stateMessage struct {
	reading.Reading
	Ts     int64  `json:"ts"`
	Source string `json:"source"`
}

// MQTT publishes each reading as retained (or not) JSON state under
// {base}/{location}/{id}/state. The location is lowercased with spaces
// replaced by underscores; the id is uppercased with colons stripped.
type MQTT struct {
	pub       Publisher
	baseTopic string
	retain    bool
	now       func() time.Time
}

// NewMQTT creates an MQTT sink on top of pub. A nil publisher is a
// configuration error, reported immediately rather than at first write.
func NewMQTT(pub Publisher, baseTopic string, retain bool) (*MQTT, error) {
	if pub == nil {
		return nil, fmt.Errorf("%w: MQTT output requested but no broker client is configured; set --mqtt-host", ErrMissingDependency)
	}
	return &MQTT{
		pub:       pub,
		baseTopic: strings.TrimRight(baseTopic, "/"),
		retain:    retain,
		now:       time.Now,
	}, nil
}

func (m *MQTT) Open(ctx context.Context) error {
	if err := m.pub.Connect(ctx); err != nil {
		return fmt.Errorf("%w: mqtt: %v", ErrUnavailable, err)
	}
	return nil
}

func (m *MQTT) Write(r *reading.Reading) error {
	payload, err := json.Marshal(stateMessage{
		Reading: *r,
		Ts:      m.now().Unix(),
		Source:  "ble",
	})
	if err != nil {
		return fmt.Errorf("%w: mqtt: %v", ErrWrite, err)
	}
	if err := m.pub.Publish(m.Topic(r), payload, m.retain); err != nil {
		return fmt.Errorf("%w: mqtt: %v", ErrWrite, err)
	}
	return nil
}

// Topic returns the publish topic for a reading.
func (m *MQTT) Topic(r *reading.Reading) string {
	room := r.Location
	if room == "" {
		room = "unknown"
	}
	dev := r.ID
	if dev == "" {
		dev = "unknown"
	}
	room = strings.ToLower(strings.ReplaceAll(room, " ", "_"))
	dev = strings.ToUpper(strings.ReplaceAll(dev, ":", ""))
	return m.baseTopic + "/" + room + "/" + dev + "/state"
}

func (m *MQTT) Close() error {
	m.pub.Close()
	return nil
}
