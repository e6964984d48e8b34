// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"
	FieldHandle    = "handle"

	// Runtime call fields
	FieldComponent = "component"
	FieldOp        = "op"
	FieldElapsed   = "elapsed_ms"
	FieldErrKind   = "err_kind"
	FieldPyType    = "py_type"

	// HTTP fields
	FieldPath = "path"

	// Domain fields
	FieldBackend = "backend"
	FieldQubits  = "qubits"
	FieldClbits  = "clbits"
	FieldShots   = "shots"
	FieldStatus  = "status"
)
