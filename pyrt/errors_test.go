// SPDX-License-Identifier: MIT

package pyrt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTranslate_SDKClassification(t *testing.T) {
	cases := []struct {
		name    string
		pyType  string
		message string
		wantSDK bool
	}{
		{
			name:    "QiskitError by type",
			pyType:  "QiskitError",
			message: "duplicate register name",
			wantSDK: true,
		},
		{
			name:    "CircuitError by type",
			pyType:  "CircuitError",
			message: "index out of range",
			wantSDK: true,
		},
		{
			name:    "AerError by type",
			pyType:  "AerError",
			message: "simulation method unavailable",
			wantSDK: true,
		},
		{
			name:    "TranspilerError by type",
			pyType:  "TranspilerError",
			message: "layout does not fit",
			wantSDK: true,
		},
		{
			name:    "Qiskit type prefix",
			pyType:  "QiskitIndexError",
			message: "whatever",
			wantSDK: true,
		},
		{
			name:    "bare exception with qiskit marker in message",
			pyType:  "Exception",
			message: "qiskit.providers raised something",
			wantSDK: true,
		},
		{
			name:    "unknown handle is not an SDK failure",
			pyType:  "KeyError",
			message: "unknown handle 42",
			wantSDK: false,
		},
		{
			name:    "plain python failure passes through",
			pyType:  "TypeError",
			message: "unsupported operand",
			wantSDK: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := WorkerException(tc.pyType, tc.message)
			got := translate("circuit.h", `{"handle":1}`, in)

			if errors.Is(got, ErrSDK) != tc.wantSDK {
				t.Fatalf("translate(%s) SDK=%v, want %v: %v", tc.pyType, !tc.wantSDK, tc.wantSDK, got)
			}
			// The original message must survive translation either way.
			if !strings.Contains(got.Error(), tc.message) {
				t.Fatalf("translated error %q lost original message %q", got, tc.message)
			}
		})
	}
}

func TestTranslate_SDKErrorCarriesCallContext(t *testing.T) {
	in := WorkerException("CircuitError", "qubit 9 out of range")
	got := translate("circuit.cx", `{"handle":3,"qubits":[0,9]}`, in)

	var sdkErr *SDKError
	if !errors.As(got, &sdkErr) {
		t.Fatalf("expected *SDKError, got %T: %v", got, got)
	}
	if sdkErr.Op != "circuit.cx" {
		t.Errorf("op: got %q", sdkErr.Op)
	}
	if sdkErr.Params != `{"handle":3,"qubits":[0,9]}` {
		t.Errorf("params: got %q", sdkErr.Params)
	}
	if sdkErr.PyType != "CircuitError" {
		t.Errorf("py type: got %q", sdkErr.PyType)
	}
	if sdkErr.Message != "qubit 9 out of range" {
		t.Errorf("message: got %q", sdkErr.Message)
	}
}

func TestTranslate_DeadlineBecomesTimeout(t *testing.T) {
	got := translate("job.result", "", fmt.Errorf("wait: %w", context.DeadlineExceeded))
	if !errors.Is(got, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", got)
	}
}

func TestTranslate_TransportFailureKeepsRuntimeSentinel(t *testing.T) {
	got := translate("ping", "", fmt.Errorf("%w: worker exited", ErrRuntime))
	if !errors.Is(got, ErrRuntime) {
		t.Fatalf("expected ErrRuntime, got %v", got)
	}
}

func TestTranslate_OtherErrorsPropagateUnclassified(t *testing.T) {
	cause := errors.New("boom")
	got := translate("ping", "", cause)
	if !errors.Is(got, cause) {
		t.Fatalf("expected cause preserved, got %v", got)
	}
	if errors.Is(got, ErrSDK) || errors.Is(got, ErrTimeout) {
		t.Fatalf("unexpected classification: %v", got)
	}
}

func TestErrKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&SDKError{Op: "x", PyType: "QiskitError", Message: "m"}, "sdk"},
		{fmt.Errorf("%w", ErrTimeout), "timeout"},
		{fmt.Errorf("%w", ErrRuntime), "runtime"},
		{fmt.Errorf("%w", ErrNotInitialized), "runtime"},
		{errors.New("boom"), "other"},
	}
	for _, tc := range cases {
		if got := errKind(tc.err); got != tc.want {
			t.Errorf("errKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
