// SPDX-License-Identifier: MIT

package quantuminfo

import (
	"context"

	"github.com/qbridge/qbridge/circuit"
	"github.com/qbridge/qbridge/internal/validate"
	"github.com/qbridge/qbridge/pyrt"
)

// DensityMatrix is a handle to a foreign density matrix.
type DensityMatrix struct {
	rt        *pyrt.Runtime
	handle    pyrt.Handle
	numQubits int
}

// DensityMatrixFromCircuit builds the density matrix of circ's output state
// inside the SDK.
func DensityMatrixFromCircuit(ctx context.Context, circ *circuit.Circuit) (*DensityMatrix, error) {
	rt := pyrt.Default()
	h, err := rt.NewHandle(ctx, "qi.density_from_circuit", map[string]any{
		"circuit": circ.Handle(),
	})
	if err != nil {
		return nil, err
	}
	return &DensityMatrix{rt: rt, handle: h, numQubits: circ.NumQubits()}, nil
}

// Handle exposes the foreign reference.
func (d *DensityMatrix) Handle() pyrt.Handle { return d.handle }

// NumQubits returns the subsystem count.
func (d *DensityMatrix) NumQubits() int { return d.numQubits }

// Purity returns Tr(rho^2).
func (d *DensityMatrix) Purity(ctx context.Context) (float64, error) {
	var p float64
	err := d.rt.Call(ctx, "qi.dm_purity", map[string]any{"handle": d.handle}, &p)
	return p, err
}

// PartialTrace traces out every qubit not listed in keep and returns the
// reduced state.
func (d *DensityMatrix) PartialTrace(ctx context.Context, keep []int) (*DensityMatrix, error) {
	if err := validate.Indices(keep, d.numQubits, "qubit"); err != nil {
		return nil, err
	}
	h, err := d.rt.NewHandle(ctx, "qi.dm_partial_trace", map[string]any{
		"handle": d.handle, "keep": keep,
	})
	if err != nil {
		return nil, err
	}
	return &DensityMatrix{rt: d.rt, handle: h, numQubits: len(keep)}, nil
}

// Close releases the foreign handle.
func (d *DensityMatrix) Close(ctx context.Context) error {
	d.rt.Release(ctx, d.handle)
	d.handle = 0
	return nil
}
