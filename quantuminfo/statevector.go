// SPDX-License-Identifier: MIT

// Package quantuminfo wraps the SDK's quantum-information utilities:
// statevectors, density matrices, Pauli operators and the scalar measures
// built on them. Complex amplitudes cross the boundary as [re, im] pairs;
// that conversion is the only local work.
package quantuminfo

import (
	"context"

	"github.com/qbridge/qbridge/circuit"
	"github.com/qbridge/qbridge/pyrt"
)

// Statevector is a handle to a foreign statevector.
type Statevector struct {
	rt     *pyrt.Runtime
	handle pyrt.Handle
}

// StatevectorFromCircuit evolves |0...0> through circ inside the SDK.
func StatevectorFromCircuit(ctx context.Context, circ *circuit.Circuit) (*Statevector, error) {
	rt := pyrt.Default()
	h, err := rt.NewHandle(ctx, "qi.statevector_from_circuit", map[string]any{
		"circuit": circ.Handle(),
	})
	if err != nil {
		return nil, err
	}
	return &Statevector{rt: rt, handle: h}, nil
}

// NewStatevector builds a statevector from explicit amplitudes.
// Normalization is validated by the SDK, not here.
func NewStatevector(ctx context.Context, amplitudes []complex128) (*Statevector, error) {
	rt := pyrt.Default()
	h, err := rt.NewHandle(ctx, "qi.statevector_new", map[string]any{
		"amplitudes": encodeComplex(amplitudes),
	})
	if err != nil {
		return nil, err
	}
	return &Statevector{rt: rt, handle: h}, nil
}

// Handle exposes the foreign reference.
func (s *Statevector) Handle() pyrt.Handle { return s.handle }

// Probabilities returns the measurement probability of each basis state.
func (s *Statevector) Probabilities(ctx context.Context) ([]float64, error) {
	var probs []float64
	err := s.rt.Call(ctx, "qi.sv_probabilities", map[string]any{"handle": s.handle}, &probs)
	return probs, err
}

// Amplitudes returns the raw amplitudes.
func (s *Statevector) Amplitudes(ctx context.Context) ([]complex128, error) {
	var pairs [][2]float64
	if err := s.rt.Call(ctx, "qi.sv_amplitudes", map[string]any{"handle": s.handle}, &pairs); err != nil {
		return nil, err
	}
	return decodeComplex(pairs), nil
}

// ExpectationValue returns the real part of <s|op|s>.
func (s *Statevector) ExpectationValue(ctx context.Context, op *PauliOp) (float64, error) {
	var value float64
	err := s.rt.Call(ctx, "qi.sv_expectation", map[string]any{
		"handle": s.handle, "op": op.Handle(),
	}, &value)
	return value, err
}

// Equiv reports whether two statevectors are equal up to global phase.
func (s *Statevector) Equiv(ctx context.Context, other *Statevector) (bool, error) {
	var eq bool
	err := s.rt.Call(ctx, "qi.sv_equiv", map[string]any{
		"handle": s.handle, "other": other.handle,
	}, &eq)
	return eq, err
}

// Close releases the foreign handle.
func (s *Statevector) Close(ctx context.Context) error {
	s.rt.Release(ctx, s.handle)
	s.handle = 0
	return nil
}

func encodeComplex(values []complex128) [][2]float64 {
	out := make([][2]float64, len(values))
	for i, v := range values {
		out[i] = [2]float64{real(v), imag(v)}
	}
	return out
}

func decodeComplex(pairs [][2]float64) []complex128 {
	out := make([]complex128, len(pairs))
	for i, p := range pairs {
		out[i] = complex(p[0], p[1])
	}
	return out
}
