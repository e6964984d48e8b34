// SPDX-License-Identifier: MIT

// Package backend wraps SDK simulator backends. Options are plain name→value
// maps forwarded verbatim to the SDK constructor; nothing is interpreted
// locally.
package backend

import (
	"context"

	"github.com/qbridge/qbridge/circuit"
	"github.com/qbridge/qbridge/job"
	"github.com/qbridge/qbridge/pyrt"
)

// Backend is a handle to a foreign simulator backend.
type Backend struct {
	rt     *pyrt.Runtime
	handle pyrt.Handle
}

// Option sets one named backend option.
type Option func(map[string]any)

// WithMethod selects the simulation method ("statevector", "density_matrix",
// "stabilizer", ...). Valid values are the SDK's business.
func WithMethod(method string) Option {
	return func(m map[string]any) { m["method"] = method }
}

// WithDevice selects the simulation device ("CPU" or "GPU").
func WithDevice(device string) Option {
	return func(m map[string]any) { m["device"] = device }
}

// WithSeed fixes the simulator seed.
func WithSeed(seed int64) Option {
	return func(m map[string]any) { m["seed_simulator"] = seed }
}

// WithShots sets the default shot count for runs on this backend.
func WithShots(shots int) Option {
	return func(m map[string]any) { m["shots"] = shots }
}

// WithNoiseModel attaches a foreign noise-model handle. Building the noise
// model is the SDK's job; this only forwards the reference.
func WithNoiseModel(h pyrt.Handle) Option {
	return func(m map[string]any) { m["noise_model"] = h }
}

func buildOptions(opts []Option) map[string]any {
	m := map[string]any{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Aer obtains an Aer simulator backend with the given options.
func Aer(ctx context.Context, opts ...Option) (*Backend, error) {
	rt := pyrt.Default()
	params := map[string]any{}
	if m := buildOptions(opts); len(m) > 0 {
		params["options"] = m
	}
	h, err := rt.NewHandle(ctx, "backend.aer", params)
	if err != nil {
		return nil, err
	}
	return &Backend{rt: rt, handle: h}, nil
}

// List returns the names of the available simulator backends.
func List(ctx context.Context) ([]string, error) {
	var names []string
	err := pyrt.Default().Call(ctx, "backend.list", nil, &names)
	return names, err
}

// Handle exposes the foreign reference for sibling packages.
func (b *Backend) Handle() pyrt.Handle { return b.handle }

// Name returns the backend's SDK name.
func (b *Backend) Name(ctx context.Context) (string, error) {
	var name string
	err := b.rt.Call(ctx, "backend.name", map[string]any{"handle": b.handle}, &name)
	return name, err
}

// MaxQubits returns the backend's configured qubit capacity.
func (b *Backend) MaxQubits(ctx context.Context) (int, error) {
	var n int
	err := b.rt.Call(ctx, "backend.max_qubits", map[string]any{"handle": b.handle}, &n)
	return n, err
}

// RunOption sets one named run option.
type RunOption func(map[string]any)

// RunShots overrides the shot count for a single run.
func RunShots(shots int) RunOption {
	return func(m map[string]any) { m["shots"] = shots }
}

// Run executes circ on the backend and returns the SDK job.
func (b *Backend) Run(ctx context.Context, circ *circuit.Circuit, opts ...RunOption) (*job.Job, error) {
	options := map[string]any{}
	for _, opt := range opts {
		opt(options)
	}
	params := map[string]any{"handle": b.handle, "circuit": circ.Handle()}
	if len(options) > 0 {
		params["options"] = options
	}
	h, err := b.rt.NewHandle(ctx, "backend.run", params)
	if err != nil {
		return nil, err
	}
	return job.Adopt(b.rt, h, job.KindCounts), nil
}

// Close releases the foreign backend handle.
func (b *Backend) Close(ctx context.Context) error {
	b.rt.Release(ctx, b.handle)
	b.handle = 0
	return nil
}
