package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/srg/metermon/internal/sink"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "numeric version gets v prefix", input: "1.2.3", expected: "v1.2.3"},
		{name: "dev version unchanged", input: "dev", expected: "dev"},
		{name: "already prefixed", input: "v1.2.3", expected: "v1.2.3"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatVersion(tt.input))
		})
	}
}

func TestFormatUserError(t *testing.T) {
	assert.Equal(t, "operation timed out", FormatUserError(context.DeadlineExceeded))

	err := fmt.Errorf("%w: influx file /x: permission denied", sink.ErrUnavailable)
	assert.Contains(t, FormatUserError(err), "output unavailable")

	plain := errors.New("something else")
	assert.Equal(t, "something else", FormatUserError(plain))
}

func TestListenRejectsInvalidOutputFormat(t *testing.T) {
	listenOutput = "xml"
	defer func() { listenOutput = "pp" }()

	err := runListen(listenCmd, nil)
	assert.ErrorContains(t, err, "invalid output format")
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("METERMON_TEST_STR", "broker.local")
	assert.Equal(t, "broker.local", envOr("METERMON_TEST_STR", "127.0.0.1"))
	assert.Equal(t, "127.0.0.1", envOr("METERMON_TEST_UNSET", "127.0.0.1"))

	t.Setenv("METERMON_TEST_INT", "8883")
	assert.Equal(t, 8883, envIntOr("METERMON_TEST_INT", 1883))
	t.Setenv("METERMON_TEST_INT", "not-a-number")
	assert.Equal(t, 1883, envIntOr("METERMON_TEST_INT", 1883))
	assert.Equal(t, 1883, envIntOr("METERMON_TEST_INT_UNSET", 1883))
}
