// Package sink defines the output contract for decoded readings and the
// concrete console, file, and network sinks.
//
// Every sink follows the same strict lifecycle: Open exactly once before any
// Write, Write zero or more times, Close exactly once. Close is idempotent
// and safe to call even when Open failed, so callers can unconditionally
// tear sinks down on every exit path.
package sink

import (
	"context"
	"errors"

	"github.com/srg/metermon/internal/reading"
)

// Sink is a polymorphic output target for readings.
type Sink interface {
	// Open prepares the sink for writing. A failed Open means the sink must
	// not receive writes; the error wraps ErrUnavailable.
	Open(ctx context.Context) error

	// Write delivers one reading. A failure wraps ErrWrite and only affects
	// this sink; callers keep delivering to sibling sinks.
	Write(r *reading.Reading) error

	// Close releases the sink's downstream handle. Idempotent.
	Close() error
}

var (
	// ErrUnavailable reports a sink that failed to open.
	ErrUnavailable = errors.New("sink unavailable")

	// ErrWrite reports a failed delivery of a single reading.
	ErrWrite = errors.New("sink write failed")

	// ErrMissingDependency reports a sink constructed without a required
	// external capability. This is a configuration error and is raised at
	// construction time, never silently downgraded.
	ErrMissingDependency = errors.New("missing optional dependency")
)

func intVal(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func floatVal(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
