package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/srg/metermon/internal/reading"
)

// CSV writes readings as comma-separated rows. The header row is derived
// from the first record's field set, which locks the column set for the
// lifetime of the sink; later records missing a column render it empty and
// fields outside the locked set are dropped.
type CSV struct {
	w      *csv.Writer
	fields []string
}

// NewCSV creates a CSV sink writing to out.
func NewCSV(out io.Writer) *CSV {
	return &CSV{w: csv.NewWriter(out)}
}

func (c *CSV) Open(ctx context.Context) error { return nil }

func (c *CSV) Write(r *reading.Reading) error {
	fields := r.Fields()

	if c.fields == nil {
		c.fields = make([]string, 0, fields.Len())
		for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
			c.fields = append(c.fields, pair.Key)
		}
		if err := c.w.Write(c.fields); err != nil {
			return fmt.Errorf("%w: csv header: %v", ErrWrite, err)
		}
	}

	row := make([]string, len(c.fields))
	for i, name := range c.fields {
		if v, ok := fields.Get(name); ok {
			row[i] = v
		}
	}
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("%w: csv: %v", ErrWrite, err)
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("%w: csv: %v", ErrWrite, err)
	}
	return nil
}

func (c *CSV) Close() error {
	c.w.Flush()
	return c.w.Error()
}
