package main

import (
	"context"
	"errors"

	"github.com/srg/metermon/internal/dispatch"
	"github.com/srg/metermon/internal/sink"
)

// FormatUserError turns an error chain into a message suitable for the
// terminal, without Go error-wrapping noise for the common cases.
func FormatUserError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "operation timed out"
	case errors.Is(err, sink.ErrMissingDependency):
		return err.Error()
	case errors.Is(err, sink.ErrUnavailable):
		return "output unavailable: " + err.Error()
	case errors.Is(err, dispatch.ErrProtocolViolation):
		return err.Error() + " (shut down: the decoder's single-entry assumption no longer holds)"
	default:
		return err.Error()
	}
}
