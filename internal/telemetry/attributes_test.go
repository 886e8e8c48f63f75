// SPDX-License-Identifier: MIT
package telemetry

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestHTTPAttributes(t *testing.T) {
	attrs := HTTPAttributes("POST", "/api/v1/camera/picture", 409)

	if len(attrs) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, HTTPMethodKey, "POST")
	verifyAttribute(t, attrs, HTTPRouteKey, "/api/v1/camera/picture")
	verifyIntAttribute(t, attrs, HTTPStatusCodeKey, 409)
}

func TestOperationAttributes(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		required string
		target   string
		wantLen  int
	}{
		{name: "full", command: "ca 1", required: "ready", target: "video", wantLen: 5},
		{name: "no command", required: "ready", target: "halted", wantLen: 4},
		{name: "bare", wantLen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := OperationAttributes("startRecording", "op-1", tt.command, tt.required, tt.target)
			if len(attrs) != tt.wantLen {
				t.Errorf("Expected %d attributes, got %d", tt.wantLen, len(attrs))
			}
			verifyAttribute(t, attrs, CameraOperationKey, "startRecording")
			verifyAttribute(t, attrs, CameraOperationIDKey, "op-1")
			if tt.command != "" {
				verifyAttribute(t, attrs, CameraCommandKey, tt.command)
			}
			if tt.target != "" {
				verifyAttribute(t, attrs, CameraTargetKey, tt.target)
			}
		})
	}
}

func TestResultAttributes(t *testing.T) {
	attrs := ResultAttributes("ready", 2)
	verifyAttribute(t, attrs, CameraStatusKey, "ready")
	verifyIntAttribute(t, attrs, CameraFilesKey, 2)
}

func TestErrorAttributes(t *testing.T) {
	err := errors.New("test error")
	attrs := ErrorAttributes(err, "command_failed")

	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}

	verifyBoolAttribute(t, attrs, ErrorKey, true)
	verifyAttribute(t, attrs, ErrorTypeKey, "command_failed")
}

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, expectedValue string) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsString() != expectedValue {
				t.Errorf("Expected %s=%s, got %s", key, expectedValue, attr.Value.AsString())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyIntAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsInt64() != int64(expectedValue) {
				t.Errorf("Expected %s=%d, got %d", key, expectedValue, attr.Value.AsInt64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyBoolAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue bool) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsBool() != expectedValue {
				t.Errorf("Expected %s=%t, got %t", key, expectedValue, attr.Value.AsBool())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}
