package sink

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/srg/metermon/internal/reading"
)

var (
	prettyLocation = color.New(color.FgCyan)
	prettyLight    = color.New(color.FgYellow)
)

// Pretty writes one human-readable line per reading. Color is applied only
// when the destination is a terminal (the color package disables itself on
// pipes), so piped output keeps the plain format.
type Pretty struct {
	out io.Writer
}

// NewPretty creates a pretty-printing sink writing to out.
func NewPretty(out io.Writer) *Pretty {
	return &Pretty{out: out}
}

func (p *Pretty) Open(ctx context.Context) error { return nil }

func (p *Pretty) Write(r *reading.Reading) error {
	ts := time.Unix(r.Time, 0).Format("2006-01-02 15:04:05")

	// Annotate light only when present and non-zero; a dark hub reads the
	// same as a sensor without a light gauge.
	light := ""
	if r.Light != nil && *r.Light != 0 {
		light = prettyLight.Sprintf("light level = %d", *r.Light)
	}

	// Pad before colorizing: escape codes must not count toward the width.
	loc := prettyLocation.Sprint(fmt.Sprintf("%-15s", r.Location))

	_, err := fmt.Fprintf(p.out, "%s\t%s %-10s (%4ddBm)\ttemp = %sc humidity = %d%% %s\n",
		ts, loc, r.ID, intVal(r.RSSI), reading.FloatString(floatVal(r.TempC)), intVal(r.Humidity), light)
	if err != nil {
		return fmt.Errorf("%w: pretty: %v", ErrWrite, err)
	}
	return nil
}

func (p *Pretty) Close() error { return nil }
