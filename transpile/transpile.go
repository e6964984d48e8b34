// SPDX-License-Identifier: MIT

// Package transpile forwards circuits to the SDK transpiler. All rewriting
// happens in the SDK; the only local checks are the option ranges.
package transpile

import (
	"context"

	"github.com/qbridge/qbridge/backend"
	"github.com/qbridge/qbridge/circuit"
	"github.com/qbridge/qbridge/internal/validate"
	"github.com/qbridge/qbridge/pyrt"
)

// Option sets one named transpiler option.
type Option func(*options)

type options struct {
	m      map[string]any
	layout []int
	err    error
}

// WithOptimizationLevel sets the transpiler optimization level (0 through 3).
func WithOptimizationLevel(level int) Option {
	return func(o *options) {
		if err := validate.Range(level, 0, 3, "optimization level"); err != nil {
			o.err = err
			return
		}
		o.m["optimization_level"] = level
	}
}

// WithBackend targets the transpilation at a backend.
func WithBackend(b *backend.Backend) Option {
	return func(o *options) { o.m["backend"] = b.Handle() }
}

// WithBasisGates restricts the output to the given basis gate set.
func WithBasisGates(gates []string) Option {
	return func(o *options) { o.m["basis_gates"] = gates }
}

// WithLayout pins the initial qubit layout. Indices are range-checked against
// the circuit width at Run time.
func WithLayout(layout []int) Option {
	return func(o *options) {
		o.layout = layout
		o.m["initial_layout"] = layout
	}
}

// WithSeed fixes the transpiler seed.
func WithSeed(seed int64) Option {
	return func(o *options) { o.m["seed_transpiler"] = seed }
}

// Run transpiles circ and returns the rewritten circuit as a new handle. The
// input circuit is left untouched.
func Run(ctx context.Context, circ *circuit.Circuit, opts ...Option) (*circuit.Circuit, error) {
	o := &options{m: map[string]any{}}
	for _, opt := range opts {
		opt(o)
	}
	if o.err != nil {
		return nil, o.err
	}
	if o.layout != nil {
		if err := validate.Indices(o.layout, circ.NumQubits(), "layout qubit"); err != nil {
			return nil, err
		}
	}

	rt := pyrt.Default()
	params := map[string]any{"circuit": circ.Handle()}
	if len(o.m) > 0 {
		params["options"] = o.m
	}
	h, err := rt.NewHandle(ctx, "transpile.run", params)
	if err != nil {
		return nil, err
	}
	return circuit.Adopt(rt, h, circ.NumQubits(), circ.NumClbits()), nil
}
