// SPDX-License-Identifier: MIT

package circuit

import (
	"context"

	"github.com/qbridge/qbridge/internal/validate"
)

// apply validates the qubit indices locally, then forwards one gate to the
// foreign circuit. Deeper validation (duplicate qubits and the like) is the
// SDK's job.
func (c *Circuit) apply(ctx context.Context, name string, params []float64, qubits ...int) (*Circuit, error) {
	if err := validate.Indices(qubits, c.numQubits, "qubit"); err != nil {
		return c, err
	}
	p := map[string]any{"handle": c.handle, "name": name, "qubits": qubits}
	if len(params) > 0 {
		p["params"] = params
	}
	err := c.rt.Call(ctx, "circuit.gate", p, nil)
	return c, err
}

// Single-qubit gates.

// H applies a Hadamard gate to qubit q.
func (c *Circuit) H(ctx context.Context, q int) (*Circuit, error) {
	return c.apply(ctx, "h", nil, q)
}

// X applies a Pauli-X gate to qubit q.
func (c *Circuit) X(ctx context.Context, q int) (*Circuit, error) {
	return c.apply(ctx, "x", nil, q)
}

// Y applies a Pauli-Y gate to qubit q.
func (c *Circuit) Y(ctx context.Context, q int) (*Circuit, error) {
	return c.apply(ctx, "y", nil, q)
}

// Z applies a Pauli-Z gate to qubit q.
func (c *Circuit) Z(ctx context.Context, q int) (*Circuit, error) {
	return c.apply(ctx, "z", nil, q)
}

// S applies the S (sqrt-Z) gate to qubit q.
func (c *Circuit) S(ctx context.Context, q int) (*Circuit, error) {
	return c.apply(ctx, "s", nil, q)
}

// Sdg applies the S-dagger gate to qubit q.
func (c *Circuit) Sdg(ctx context.Context, q int) (*Circuit, error) {
	return c.apply(ctx, "sdg", nil, q)
}

// T applies the T gate to qubit q.
func (c *Circuit) T(ctx context.Context, q int) (*Circuit, error) {
	return c.apply(ctx, "t", nil, q)
}

// Tdg applies the T-dagger gate to qubit q.
func (c *Circuit) Tdg(ctx context.Context, q int) (*Circuit, error) {
	return c.apply(ctx, "tdg", nil, q)
}

// RX applies a rotation of theta radians around the X axis to qubit q.
func (c *Circuit) RX(ctx context.Context, theta float64, q int) (*Circuit, error) {
	return c.apply(ctx, "rx", []float64{theta}, q)
}

// RY applies a rotation of theta radians around the Y axis to qubit q.
func (c *Circuit) RY(ctx context.Context, theta float64, q int) (*Circuit, error) {
	return c.apply(ctx, "ry", []float64{theta}, q)
}

// RZ applies a rotation of theta radians around the Z axis to qubit q.
func (c *Circuit) RZ(ctx context.Context, theta float64, q int) (*Circuit, error) {
	return c.apply(ctx, "rz", []float64{theta}, q)
}

// P applies a phase gate of theta radians to qubit q.
func (c *Circuit) P(ctx context.Context, theta float64, q int) (*Circuit, error) {
	return c.apply(ctx, "p", []float64{theta}, q)
}

// Two-qubit gates. Control/target distinctness is the SDK's check, not ours.

// CX applies a controlled-X with the given control and target qubits.
func (c *Circuit) CX(ctx context.Context, control, target int) (*Circuit, error) {
	return c.apply(ctx, "cx", nil, control, target)
}

// CY applies a controlled-Y with the given control and target qubits.
func (c *Circuit) CY(ctx context.Context, control, target int) (*Circuit, error) {
	return c.apply(ctx, "cy", nil, control, target)
}

// CZ applies a controlled-Z with the given control and target qubits.
func (c *Circuit) CZ(ctx context.Context, control, target int) (*Circuit, error) {
	return c.apply(ctx, "cz", nil, control, target)
}

// SWAP exchanges qubits a and b.
func (c *Circuit) SWAP(ctx context.Context, a, b int) (*Circuit, error) {
	return c.apply(ctx, "swap", nil, a, b)
}

// CRZ applies a controlled Z rotation of theta radians.
func (c *Circuit) CRZ(ctx context.Context, theta float64, control, target int) (*Circuit, error) {
	return c.apply(ctx, "crz", []float64{theta}, control, target)
}

// Three-qubit gates.

// CCX applies a Toffoli gate.
func (c *Circuit) CCX(ctx context.Context, control1, control2, target int) (*Circuit, error) {
	return c.apply(ctx, "ccx", nil, control1, control2, target)
}

// CSWAP applies a Fredkin gate.
func (c *Circuit) CSWAP(ctx context.Context, control, a, b int) (*Circuit, error) {
	return c.apply(ctx, "cswap", nil, control, a, b)
}
