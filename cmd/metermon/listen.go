package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/srg/metermon/internal/blescan"
	"github.com/srg/metermon/internal/dispatch"
	"github.com/srg/metermon/internal/profile"
	"github.com/srg/metermon/internal/sink"
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Listen for sensor broadcasts and print readings",
	Long: `Listen for BLE advertisement broadcasts from the devices in the
device map, decode them, and print each changed reading.

The devices rebroadcast every few seconds; by default only readings that
differ from the previous one for that device are printed. Use --all for a
steady heartbeat instead.

Runs until interrupted (Ctrl+C).`,
	RunE: runListen,
}

var (
	listenOutput  string
	listenAll     bool
	listenDevices string
	listenAdapter string
)

func init() {
	listenCmd.Flags().StringVarP(&listenOutput, "output", "o", "pp", "Output format (pp, csv, json)")
	listenCmd.Flags().BoolVarP(&listenAll, "all", "a", false, "Print all readings, regardless of state change")
	listenCmd.Flags().StringVar(&listenDevices, "devices", "devices.yaml", "Device map file (address -> type/location/id)")
	listenCmd.Flags().StringVar(&listenAdapter, "adapter", "hci0", "Bluetooth adapter")
}

func runListen(cmd *cobra.Command, args []string) error {
	var out sink.Sink
	switch listenOutput {
	case "pp":
		out = sink.NewPretty(os.Stdout)
	case "csv":
		out = sink.NewCSV(os.Stdout)
	case "json":
		out = sink.NewJSONLines(os.Stdout)
	default:
		return fmt.Errorf("invalid output format '%s': must be one of [pp csv json]", listenOutput)
	}

	logger, err := configureLogger(cmd)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	devices, err := profile.Load(listenDevices)
	if err != nil {
		return err
	}
	logger.WithField("devices", len(devices)).Info("device map loaded")

	loop := dispatch.New(dispatch.Config{
		Devices:     devices,
		Sinks:       []sink.Sink{out},
		AllReadings: listenAll,
		Logger:      logger,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Listen for Ctrl+C to cancel
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	// The scan callback only enqueues; the loop goroutine does all the work.
	// A scanner that cannot start (or dies mid-scan) must take the loop down
	// with it, so the goroutine cancels on exit.
	scanner := blescan.New(listenAdapter, logger)
	scanErrCh := make(chan error, 1)
	go func() {
		scanErrCh <- scanner.Run(ctx, loop.Enqueue)
		cancel()
	}()

	err = loop.Run(ctx)

	// The loop may have drained on its own (protocol violation); stop the
	// scan too before collecting its result.
	cancel()
	scanErr := <-scanErrCh

	// Interruption is the normal way out; a scan failure is not.
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err == nil {
		err = scanErr
	}
	return err
}
