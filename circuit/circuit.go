// SPDX-License-Identifier: MIT

// Package circuit wraps the SDK's quantum circuit. The circuit itself lives
// in the foreign runtime; this side validates indices, forwards calls and
// returns the receiver so gate applications chain.
package circuit

import (
	"context"
	"fmt"

	"github.com/qbridge/qbridge/internal/validate"
	"github.com/qbridge/qbridge/pyrt"
)

// Circuit is a handle to a foreign QuantumCircuit plus the locally cached
// register widths used for bounds checks.
type Circuit struct {
	rt        *pyrt.Runtime
	handle    pyrt.Handle
	numQubits int
	numClbits int
}

// New builds a circuit with numQubits qubits and no classical register.
func New(ctx context.Context, numQubits int) (*Circuit, error) {
	return NewWithClbits(ctx, numQubits, 0)
}

// NewWithClbits builds a circuit with explicit quantum and classical register
// widths.
func NewWithClbits(ctx context.Context, numQubits, numClbits int) (*Circuit, error) {
	if err := validate.QubitCount(numQubits); err != nil {
		return nil, err
	}
	if err := validate.BitCount(numClbits); err != nil {
		return nil, err
	}
	rt := pyrt.Default()
	h, err := rt.NewHandle(ctx, "circuit.new", map[string]any{
		"num_qubits": numQubits,
		"num_clbits": numClbits,
	})
	if err != nil {
		return nil, err
	}
	return &Circuit{rt: rt, handle: h, numQubits: numQubits, numClbits: numClbits}, nil
}

// Handle exposes the foreign reference for sibling packages that forward the
// circuit into other SDK calls.
func (c *Circuit) Handle() pyrt.Handle { return c.handle }

// NumQubits returns the quantum register width.
func (c *Circuit) NumQubits() int { return c.numQubits }

// NumClbits returns the classical register width.
func (c *Circuit) NumClbits() int { return c.numClbits }

// Measure adds a measurement of qubit q into classical bit cb.
func (c *Circuit) Measure(ctx context.Context, q, cb int) (*Circuit, error) {
	if err := validate.Index(q, c.numQubits, "qubit"); err != nil {
		return c, err
	}
	if err := validate.Index(cb, c.numClbits, "clbit"); err != nil {
		return c, err
	}
	err := c.rt.Call(ctx, "circuit.measure", map[string]any{
		"handle": c.handle, "qubit": q, "clbit": cb,
	}, nil)
	return c, err
}

// MeasureAll measures every qubit into a fresh classical register, the SDK
// way: the register is appended, so NumClbits grows by NumQubits.
func (c *Circuit) MeasureAll(ctx context.Context) (*Circuit, error) {
	if err := c.rt.Call(ctx, "circuit.measure_all", map[string]any{"handle": c.handle}, nil); err != nil {
		return c, err
	}
	c.numClbits += c.numQubits
	return c, nil
}

// Barrier inserts a barrier across the given qubits, or all of them when none
// are named.
func (c *Circuit) Barrier(ctx context.Context, qubits ...int) (*Circuit, error) {
	if err := validate.Indices(qubits, c.numQubits, "qubit"); err != nil {
		return c, err
	}
	err := c.rt.Call(ctx, "circuit.barrier", map[string]any{
		"handle": c.handle, "qubits": qubits,
	}, nil)
	return c, err
}

// Reset resets qubit q to |0>.
func (c *Circuit) Reset(ctx context.Context, q int) (*Circuit, error) {
	if err := validate.Index(q, c.numQubits, "qubit"); err != nil {
		return c, err
	}
	err := c.rt.Call(ctx, "circuit.reset", map[string]any{
		"handle": c.handle, "qubit": q,
	}, nil)
	return c, err
}

// Compose appends other onto the receiver in place.
func (c *Circuit) Compose(ctx context.Context, other *Circuit) (*Circuit, error) {
	if other == nil {
		return c, fmt.Errorf("%w: nil circuit", validate.ErrInvalid)
	}
	err := c.rt.Call(ctx, "circuit.compose", map[string]any{
		"handle": c.handle, "other": other.handle,
	}, nil)
	return c, err
}

// Depth returns the circuit depth as computed by the SDK.
func (c *Circuit) Depth(ctx context.Context) (int, error) {
	var depth int
	err := c.rt.Call(ctx, "circuit.depth", map[string]any{"handle": c.handle}, &depth)
	return depth, err
}

// Size returns the gate count as computed by the SDK.
func (c *Circuit) Size(ctx context.Context) (int, error) {
	var size int
	err := c.rt.Call(ctx, "circuit.size", map[string]any{"handle": c.handle}, &size)
	return size, err
}

// Draw returns the SDK's text diagram of the circuit.
func (c *Circuit) Draw(ctx context.Context) (string, error) {
	var out string
	err := c.rt.Call(ctx, "circuit.draw", map[string]any{"handle": c.handle}, &out)
	return out, err
}

// QASM returns the OpenQASM 3 serialization of the circuit.
func (c *Circuit) QASM(ctx context.Context) (string, error) {
	var out string
	err := c.rt.Call(ctx, "circuit.qasm", map[string]any{"handle": c.handle}, &out)
	return out, err
}

// Close releases the foreign handle. Using the circuit afterwards fails with
// a runtime error from the worker.
func (c *Circuit) Close(ctx context.Context) error {
	c.rt.Release(ctx, c.handle)
	c.handle = 0
	return nil
}

// Adopt binds an existing foreign circuit handle, used when another wrapper
// call (transpile, compose results) produces a new circuit.
func Adopt(rt *pyrt.Runtime, h pyrt.Handle, numQubits, numClbits int) *Circuit {
	return &Circuit{rt: rt, handle: h, numQubits: numQubits, numClbits: numClbits}
}
