// Package blescan adapts the BlueZ advertisement stream to dispatch events.
//
// The scan callback runs on the adapter's event loop; it only converts the
// scan result and hands it to the consumer, which must not block (the
// dispatch loop's Enqueue satisfies that).
package blescan

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"

	"github.com/srg/metermon/internal/dispatch"
)

// Scanner wraps a bluetooth adapter with context cancellation.
type Scanner struct {
	adapter *bluetooth.Adapter
	logger  *logrus.Logger
}

// New creates a scanner on the named adapter ("hci0" when empty).
func New(adapterID string, logger *logrus.Logger) *Scanner {
	if adapterID == "" {
		adapterID = "hci0"
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Scanner{
		adapter: bluetooth.NewAdapter(adapterID),
		logger:  logger,
	}
}

// Run enables the adapter and scans until ctx is cancelled, invoking handler
// for every received advertisement. Duplicate advertisements are wanted
// here: the devices rebroadcast the same reading periodically and change
// detection happens downstream.
func (s *Scanner) Run(ctx context.Context, handler func(dispatch.Advertisement)) error {
	if err := s.adapter.Enable(); err != nil {
		return fmt.Errorf("ble enable: %w", err)
	}
	s.logger.Info("ble adapter enabled, scanning")

	go func() {
		<-ctx.Done()
		_ = s.adapter.StopScan()
	}()

	err := s.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		handler(convert(result))
	})

	// Cancellation stops the scan from the goroutine above; report it as a
	// clean shutdown.
	if ctx.Err() != nil {
		s.logger.Info("ble scan stopped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("ble scan: %w", err)
	}
	return nil
}

// convert copies the manufacturer data entries out of the scan result; the
// underlying buffers are only valid for the duration of the callback.
func convert(result bluetooth.ScanResult) dispatch.Advertisement {
	adv := dispatch.Advertisement{
		Address: result.Address.String(),
		RSSI:    int(result.RSSI),
	}
	for _, md := range result.ManufacturerData() {
		adv.ManufacturerData = append(adv.ManufacturerData, dispatch.ManufacturerData{
			CompanyID: md.CompanyID,
			Data:      append([]byte(nil), md.Data...),
		})
	}
	return adv
}
