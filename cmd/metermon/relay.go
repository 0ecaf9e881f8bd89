package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/srg/metermon/internal/mqtt"
	"github.com/srg/metermon/internal/relay"
	"github.com/srg/metermon/internal/sink"
)

// relayCmd represents the relay command
var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay a JSON-lines reading stream to MQTT/InfluxDB",
	Long: `Read JSON-lines readings from stdin (produced by 'metermon listen
-a -o json') and forward each one to an MQTT broker and, optionally, an
InfluxDB line-protocol file.

Lines that are not readings (interleaved log output) are passed through to
stderr unchanged. Runs until stdin closes or the process is interrupted.`,
	RunE: runRelay,
}

var (
	relayMQTTHost     string
	relayMQTTPort     int
	relayMQTTUsername string
	relayMQTTPassword string
	relayMQTTTopic    string
	relayMQTTRetain   bool
	relayInfluxFile   string
)

func init() {
	relayCmd.Flags().StringVar(&relayMQTTHost, "mqtt-host", envOr("MQTT_HOST", "127.0.0.1"), "MQTT broker host")
	relayCmd.Flags().IntVar(&relayMQTTPort, "mqtt-port", envIntOr("MQTT_PORT", 1883), "MQTT broker port")
	relayCmd.Flags().StringVar(&relayMQTTUsername, "mqtt-username", os.Getenv("MQTT_USERNAME"), "MQTT username")
	relayCmd.Flags().StringVar(&relayMQTTPassword, "mqtt-password", os.Getenv("MQTT_PASSWORD"), "MQTT password")
	relayCmd.Flags().StringVar(&relayMQTTTopic, "mqtt-topic", envOr("MQTT_TOPIC", "home/sensors"), "MQTT base topic")
	relayCmd.Flags().BoolVar(&relayMQTTRetain, "mqtt-retain", false, "Publish with the retain flag set")
	relayCmd.Flags().StringVar(&relayInfluxFile, "influx-file", "", "Append Influx line protocol to this file ('-' for stdout)")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func runRelay(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	pub := mqtt.NewClient(mqtt.Config{
		Host:     relayMQTTHost,
		Port:     relayMQTTPort,
		Username: relayMQTTUsername,
		Password: relayMQTTPassword,
	}, logger)

	mqttSink, err := sink.NewMQTT(pub, relayMQTTTopic, relayMQTTRetain)
	if err != nil {
		return err
	}

	sinks := []sink.Sink{mqttSink}
	if relayInfluxFile != "" {
		sinks = append(sinks, sink.NewInflux(relayInfluxFile))
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	err = relay.New(sinks, os.Stderr, logger).Run(ctx, os.Stdin)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
