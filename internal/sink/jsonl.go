package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/srg/metermon/internal/reading"
)

// JSONLines writes one compact JSON object per line. This is the wire format
// the relay parses, so absent optional fields are omitted entirely rather
// than emitted as null.
type JSONLines struct {
	out io.Writer
}

// NewJSONLines creates a JSON-lines sink writing to out.
func NewJSONLines(out io.Writer) *JSONLines {
	return &JSONLines{out: out}
}

func (j *JSONLines) Open(ctx context.Context) error { return nil }

func (j *JSONLines) Write(r *reading.Reading) error {
	line, err := r.MarshalLine()
	if err != nil {
		return fmt.Errorf("%w: json: %v", ErrWrite, err)
	}
	if _, err := j.out.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("%w: json: %v", ErrWrite, err)
	}
	return nil
}

func (j *JSONLines) Close() error { return nil }
