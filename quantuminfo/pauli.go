// SPDX-License-Identifier: MIT

package quantuminfo

import (
	"context"
	"fmt"

	"github.com/qbridge/qbridge/internal/validate"
	"github.com/qbridge/qbridge/pyrt"
)

// Pauli is a handle to a single foreign Pauli operator.
type Pauli struct {
	rt     *pyrt.Runtime
	handle pyrt.Handle
}

// NewPauli builds a Pauli operator from a label like "XZI". Label syntax is
// validated by the SDK.
func NewPauli(ctx context.Context, label string) (*Pauli, error) {
	if label == "" {
		return nil, fmt.Errorf("%w: empty Pauli label", validate.ErrInvalid)
	}
	rt := pyrt.Default()
	h, err := rt.NewHandle(ctx, "qi.pauli_new", map[string]any{"label": label})
	if err != nil {
		return nil, err
	}
	return &Pauli{rt: rt, handle: h}, nil
}

// Handle exposes the foreign reference.
func (p *Pauli) Handle() pyrt.Handle { return p.handle }

// Close releases the foreign handle.
func (p *Pauli) Close(ctx context.Context) error {
	p.rt.Release(ctx, p.handle)
	p.handle = 0
	return nil
}

// PauliOp is a handle to a foreign weighted Pauli sum (SparsePauliOp).
type PauliOp struct {
	rt     *pyrt.Runtime
	handle pyrt.Handle
}

// NewPauliOp builds a weighted sum of Pauli strings. labels and coeffs must
// have equal length; everything deeper is the SDK's validation.
func NewPauliOp(ctx context.Context, labels []string, coeffs []float64) (*PauliOp, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no Pauli labels", validate.ErrInvalid)
	}
	if len(labels) != len(coeffs) {
		return nil, fmt.Errorf("%w: %d labels but %d coefficients",
			validate.ErrInvalid, len(labels), len(coeffs))
	}
	rt := pyrt.Default()
	h, err := rt.NewHandle(ctx, "qi.pauliop_new", map[string]any{
		"labels": labels, "coeffs": coeffs,
	})
	if err != nil {
		return nil, err
	}
	return &PauliOp{rt: rt, handle: h}, nil
}

// Handle exposes the foreign reference.
func (p *PauliOp) Handle() pyrt.Handle { return p.handle }

// Close releases the foreign handle.
func (p *PauliOp) Close(ctx context.Context) error {
	p.rt.Release(ctx, p.handle)
	p.handle = 0
	return nil
}
