// Package dispatch drives the decode -> dedup -> deliver pipeline.
//
// The BLE layer calls Enqueue from its advertisement callback; the callback
// only filters and enqueues, never blocks. A single Run goroutine drains the
// queue, decodes, consults the change-detection cache, and pushes emitted
// readings to every configured sink in order. Because the loop is
// single-threaded, no locking is needed around dispatch state.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/srg/metermon/internal/decode"
	"github.com/srg/metermon/internal/profile"
	"github.com/srg/metermon/internal/reading"
	"github.com/srg/metermon/internal/ringchan"
	"github.com/srg/metermon/internal/sink"
)

// ErrProtocolViolation reports an advertisement that broke the single
// manufacturer-data-entry assumption. The decoder cannot be trusted past
// this point, so the loop drains instead of guessing.
var ErrProtocolViolation = errors.New("protocol violation")

// State is the dispatch loop lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateStopped
)

// stateStarting covers the sink-open phase between Idle and Running. Enqueue
// treats it like Idle, so no event is accepted before every sink has opened.
const stateStarting State = -1

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case stateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// ManufacturerData is one vendor-keyed data entry from an advertisement.
type ManufacturerData struct {
	CompanyID uint16
	Data      []byte
}

// Advertisement is one BLE advertisement event as delivered by the source.
type Advertisement struct {
	Address          string
	RSSI             int
	ManufacturerData []ManufacturerData
}

// Config configures a dispatch loop.
type Config struct {
	Devices profile.Set
	Sinks   []sink.Sink

	// AllReadings bypasses change suppression: every decoded observation is
	// emitted, giving downstream consumers a steady heartbeat.
	AllReadings bool

	// QueueSize bounds the advertisement queue (default 256). When the loop
	// falls behind, the oldest queued advertisement is dropped.
	QueueSize int

	Logger *logrus.Logger
}

// Loop is the dispatch loop. It owns the change-detection cache and the set
// of sinks, and guarantees open-before-use and close-on-every-exit-path for
// each sink.
type Loop struct {
	devices profile.Set
	sinks   []sink.Sink
	cache   *Cache
	events  *ringchan.Ring[Advertisement]
	logger  *logrus.Logger
	state   atomic.Int32
	now     func() time.Time
}

// New creates a dispatch loop in the idle state.
func New(cfg Config) *Loop {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Loop{
		devices: cfg.Devices,
		sinks:   cfg.Sinks,
		cache:   NewCache(cfg.AllReadings),
		events:  ringchan.New[Advertisement](cfg.QueueSize),
		logger:  cfg.Logger,
		now:     time.Now,
	}
}

// State returns the loop's current lifecycle state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Enqueue hands an advertisement to the loop. It is intended to be called
// from the BLE callback: it filters unknown addresses and never blocks.
// Advertisements arriving while the loop is not running are dropped, so
// cancellation gates acceptance of new events, not in-flight dispatch.
func (l *Loop) Enqueue(adv Advertisement) {
	if l.State() != StateRunning {
		return
	}
	if _, known := l.devices.Lookup(adv.Address); !known {
		return
	}
	if l.events.Send(adv) {
		l.logger.WithField("address", adv.Address).Warn("advertisement queue full, dropped oldest")
	}
}

// Run opens all sinks, drains the advertisement queue until ctx is
// cancelled or a protocol violation occurs, then closes every sink. Close
// is attempted on each sink regardless of earlier failures.
func (l *Loop) Run(ctx context.Context) error {
	if !l.state.CompareAndSwap(int32(StateIdle), int32(stateStarting)) {
		return fmt.Errorf("dispatch loop already started (state %s)", l.State())
	}

	// Fail fast: a sink that cannot open means the process must not start
	// consuming advertisements at all.
	for _, s := range l.sinks {
		if err := s.Open(ctx); err != nil {
			l.state.Store(int32(StateDraining))
			l.closeSinks()
			l.state.Store(int32(StateStopped))
			return err
		}
	}
	l.state.Store(int32(StateRunning))

	var cause error
loop:
	for {
		select {
		case <-ctx.Done():
			cause = ctx.Err()
			break loop
		case ev := <-l.events.C():
			if err := l.process(ev); err != nil {
				cause = err
				break loop
			}
		}
	}

	l.state.Store(int32(StateDraining))
	l.closeSinks()
	l.state.Store(int32(StateStopped))
	return cause
}

// process handles one advertisement. Only a protocol violation returns an
// error; malformed payloads are logged and dropped.
func (l *Loop) process(adv Advertisement) error {
	dev, known := l.devices.Lookup(adv.Address)
	if !known {
		return nil
	}

	if n := len(adv.ManufacturerData); n != 1 {
		l.logger.WithFields(logrus.Fields{
			"address": adv.Address,
			"entries": n,
		}).Error("advertisement broke the single manufacturer data assumption")
		return fmt.Errorf("%w: advertisement from %s carried %d manufacturer data entries",
			ErrProtocolViolation, adv.Address, n)
	}

	values, err := decode.Decode(dev.Kind, adv.ManufacturerData[0].Data)
	if err != nil {
		l.logger.WithError(err).WithField("address", adv.Address).Warn("dropping advertisement")
		return nil
	}

	if !l.cache.ShouldEmit(adv.Address, values) {
		return nil
	}

	rec := &reading.Reading{
		Time:     l.now().Unix(),
		Location: dev.Location,
		ID:       dev.ID,
		RSSI:     reading.Int(adv.RSSI),
		TempC:    reading.Float(values.TempC),
		Humidity: reading.Int(values.Humidity),
		Light:    values.Light,
	}

	// Deliver in configured order, at most once per sink. A failing sink
	// must not stop delivery to its siblings.
	for _, s := range l.sinks {
		if err := s.Write(rec); err != nil {
			l.logger.WithError(err).Error("sink write failed")
		}
	}
	return nil
}

func (l *Loop) closeSinks() {
	for _, s := range l.sinks {
		if err := s.Close(); err != nil {
			l.logger.WithError(err).Error("sink close failed")
		}
	}
}
