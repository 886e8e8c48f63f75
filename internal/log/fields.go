// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID   = "request_id"
	FieldOperationID = "operation_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Device fields
	FieldOperation = "operation"
	FieldCommand   = "command"
	FieldOldState  = "old_state"
	FieldNewState  = "new_state"
	FieldRequired  = "required_state"
	FieldFiles     = "files"
	FieldFPS       = "fps"

	// Path fields
	FieldPath = "path"
)
