// SPDX-License-Identifier: MIT

package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_NoErrors(t *testing.T) {
	v := New()
	v.Range("fps", 25, 1, 30)
	v.NotEmpty("path", "/tmp")
	v.OneOf("exporter", "grpc", []string{"grpc", "http"})
	v.Positive("limit", 1)
	v.NonNegativeDuration("poll", 0)
	v.MinDuration("timeout", time.Second, time.Second)
	v.FloatRange("rate", 0.5, 0, 1)
	v.ListenAddr("listen", ":8080")
	v.ListenAddr("listen", "127.0.0.1:0")

	assert.True(t, v.IsValid())
	assert.NoError(t, v.Err())
}

func TestValidator_CollectsAllFailures(t *testing.T) {
	v := New()
	v.Range("fps", 31, 1, 30)
	v.NotEmpty("path", "  ")
	v.OneOf("exporter", "udp", []string{"grpc", "http"})
	v.Positive("limit", 0)
	v.NonNegativeDuration("poll", -time.Second)
	v.MinDuration("timeout", time.Millisecond, time.Second)
	v.FloatRange("rate", 1.5, 0, 1)
	v.ListenAddr("listen", "8080")
	v.ListenAddr("listen2", ":99999")

	err := v.Err()
	require.Error(t, err)

	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t,
		[]string{"fps", "path", "exporter", "limit", "poll", "timeout", "rate", "listen", "listen2"},
		verr.Fields())
	assert.Contains(t, err.Error(), "validation failed for fps")
	assert.Contains(t, err.Error(), "; ")
}

func TestValidator_ErrIsSnapshot(t *testing.T) {
	v := New()
	v.Positive("a", 0)
	err := v.Err()
	v.Positive("b", 0)

	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Errors(), 1)
	assert.Equal(t, "validation failed for a: value must be positive, got 0", err.Error())
}
