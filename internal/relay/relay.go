// Package relay re-dispatches a serialized reading stream to remote sinks.
//
// A dispatch process run in json output mode writes one reading per line;
// piping that stream into a relay decouples capture from delivery. Lines
// that do not parse as readings (log output, diagnostics) are passed through
// to a side channel unchanged and never abort the relay.
package relay

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/srg/metermon/internal/reading"
	"github.com/srg/metermon/internal/sink"
)

// Relay forwards parsed readings from an input stream to its sinks.
type Relay struct {
	sinks       []sink.Sink
	passthrough io.Writer
	logger      *logrus.Logger
}

// New creates a relay. Unparseable input lines are written verbatim to
// passthrough.
func New(sinks []sink.Sink, passthrough io.Writer, logger *logrus.Logger) *Relay {
	if logger == nil {
		logger = logrus.New()
	}
	return &Relay{sinks: sinks, passthrough: passthrough, logger: logger}
}

// Run opens all sinks, consumes in line by line until EOF or cancellation,
// and closes every sink exactly once on the way out. A parse failure is
// foreign output, not an error; a sink write failure is logged and does not
// affect sibling sinks or later lines.
func (r *Relay) Run(ctx context.Context, in io.Reader) error {
	for _, s := range r.sinks {
		if err := s.Open(ctx); err != nil {
			r.closeSinks()
			return err
		}
	}
	defer r.closeSinks()

	// Read with no line length limit: an arbitrarily long foreign line is
	// still just foreign output, never a reason to stop relaying.
	reader := bufio.NewReader(in)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		text, readErr := reader.ReadString('\n')
		if line := strings.TrimRight(text, "\r\n"); len(line) > 0 {
			if rec, err := reading.ParseLine([]byte(line)); err != nil {
				fmt.Fprintf(r.passthrough, "%s\n", line)
			} else {
				for _, s := range r.sinks {
					if err := s.Write(rec); err != nil {
						r.logger.WithError(err).Error("sink write failed")
					}
				}
			}
		}

		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read input stream: %w", readErr)
		}
	}
}

func (r *Relay) closeSinks() {
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			r.logger.WithError(err).Error("sink close failed")
		}
	}
}
