// SPDX-License-Identifier: MIT

package quantuminfo

import (
	"context"

	"github.com/qbridge/qbridge/pyrt"
)

// state is any wrapper whose handle denotes a quantum state (statevector or
// density matrix) in the foreign runtime.
type state interface {
	Handle() pyrt.Handle
}

// StateFidelity returns the fidelity between two states.
func StateFidelity(ctx context.Context, a, b state) (float64, error) {
	var f float64
	err := pyrt.Default().Call(ctx, "qi.state_fidelity", map[string]any{
		"a": a.Handle(), "b": b.Handle(),
	}, &f)
	return f, err
}

// Entropy returns the von Neumann entropy of a state.
func Entropy(ctx context.Context, s state) (float64, error) {
	var e float64
	err := pyrt.Default().Call(ctx, "qi.entropy", map[string]any{
		"state": s.Handle(),
	}, &e)
	return e, err
}

// Concurrence returns the concurrence of a two-qubit state.
func Concurrence(ctx context.Context, s state) (float64, error) {
	var c float64
	err := pyrt.Default().Call(ctx, "qi.concurrence", map[string]any{
		"state": s.Handle(),
	}, &c)
	return c, err
}
