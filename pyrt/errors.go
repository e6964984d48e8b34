// SPDX-License-Identifier: MIT

package pyrt

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.

	// ErrSDK marks failures raised by the wrapped SDK itself (QiskitError
	// and friends), re-signalled with call context attached.
	ErrSDK = errors.New("pyrt: wrapped SDK error")
	// ErrRuntime marks transport-level failures: worker dead, pipe closed,
	// malformed frame, unknown handle.
	ErrRuntime = errors.New("pyrt: foreign runtime failure")
	// ErrTimeout marks calls abandoned because the context deadline passed.
	ErrTimeout = errors.New("pyrt: call timed out")
	// ErrNotInitialized is returned when Call is used before Init.
	ErrNotInitialized = errors.New("pyrt: runtime not initialized")
)

// sdkErrorTypes are exception type names the wrapped SDK is known to raise.
// A match re-classifies a worker failure as ErrSDK.
var sdkErrorTypes = map[string]bool{
	"QiskitError":                true,
	"CircuitError":               true,
	"AerError":                   true,
	"TranspilerError":            true,
	"QiskitBackendNotFoundError": true,
	"JobError":                   true,
	"JobTimeoutError":            true,
}

// sdkMessageMarkers are textual markers that identify an SDK failure when the
// exception type alone is not conclusive (e.g. a bare Exception re-raised by
// SDK internals).
var sdkMessageMarkers = []string{
	"qiskit",
	"aer",
}

// SDKError is a rich error carrying the original foreign exception plus the
// call context it was raised in.
type SDKError struct {
	Op      string // facade operation, e.g. "circuit.h"
	Params  string // marshalled call parameters
	PyType  string // original exception type, e.g. "CircuitError"
	Message string // original exception message, preserved verbatim
}

func (e *SDKError) Error() string {
	msg := fmt.Sprintf("pyrt: %s: %s: %s", e.Op, e.PyType, e.Message)
	if e.Params != "" {
		msg = fmt.Sprintf("%s (params %s)", msg, e.Params)
	}
	return msg
}

func (e *SDKError) Unwrap() error {
	return ErrSDK
}

// workerError is the decoded error half of a response frame. It is translated
// before leaving the package and never surfaces to callers directly.
type workerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *workerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// WorkerException builds the error value a Transport returns for a foreign
// exception. Exposed for transport implementations and test fakes.
func WorkerException(pyType, message string) error {
	return &workerError{Type: pyType, Message: message}
}

// isSDKFailure reports whether a worker failure originates from the wrapped
// SDK rather than from the worker shim or user input.
func isSDKFailure(we *workerError) bool {
	if sdkErrorTypes[we.Type] {
		return true
	}
	if strings.HasPrefix(we.Type, "Qiskit") || strings.HasPrefix(we.Type, "Aer") {
		return true
	}
	lower := strings.ToLower(we.Message)
	for _, marker := range sdkMessageMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// translate classifies a failed delegated call. SDK failures become *SDKError,
// context deadline becomes ErrTimeout, transport failures keep ErrRuntime, and
// anything else propagates with op context only.
func translate(op, params string, err error) error {
	if err == nil {
		return nil
	}
	var we *workerError
	if errors.As(err, &we) {
		if isSDKFailure(we) {
			return &SDKError{Op: op, Params: params, PyType: we.Type, Message: we.Message}
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, ErrTimeout, err)
	}
	if errors.Is(err, ErrRuntime) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// errKind maps a translated error onto a bounded metrics label.
func errKind(err error) string {
	switch {
	case errors.Is(err, ErrSDK):
		return "sdk"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrRuntime), errors.Is(err, ErrNotInitialized):
		return "runtime"
	default:
		return "other"
	}
}
