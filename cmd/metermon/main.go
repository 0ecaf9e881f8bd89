package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "metermon",
	Short: "BLE environmental sensor monitor",
	Long: `Monitor for BLE environmental sensors that broadcast readings in
advertisement manufacturer data.

- Listen for broadcasts, decode temperature/humidity/light, and print
  changed readings as pretty text, CSV, or JSON lines
- Relay a JSON-lines reading stream to MQTT and/or an InfluxDB
  line-protocol file, decoupling capture from delivery

Typical two-stage setup:

  metermon listen -a -o json | metermon relay --mqtt-host 127.0.0.1 --mqtt-retain`,
	Version: formatVersion(version),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		// Print user-friendly error message
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true

	// Add subcommands
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(relayCmd)

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	// Add -v as a short flag for --version
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}
