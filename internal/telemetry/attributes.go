// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	// Camera attributes
	CameraOperationKey   = "camera.operation"
	CameraOperationIDKey = "camera.operation_id"
	CameraCommandKey     = "camera.command"
	CameraRequiredKey    = "camera.required_state"
	CameraTargetKey      = "camera.target_state"
	CameraStatusKey      = "camera.status"
	CameraFilesKey       = "camera.files"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// OperationAttributes describes a camera operation at the moment it is issued.
// Empty command or target values are omitted.
func OperationAttributes(operation, operationID, command, required, target string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 5)
	attrs = append(attrs,
		attribute.String(CameraOperationKey, operation),
		attribute.String(CameraOperationIDKey, operationID),
	)
	if command != "" {
		attrs = append(attrs, attribute.String(CameraCommandKey, command))
	}
	if required != "" {
		attrs = append(attrs, attribute.String(CameraRequiredKey, required))
	}
	if target != "" {
		attrs = append(attrs, attribute.String(CameraTargetKey, target))
	}
	return attrs
}

// ResultAttributes describes how an operation resolved.
func ResultAttributes(status string, files int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(CameraStatusKey, status),
		attribute.Int(CameraFilesKey, files),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
