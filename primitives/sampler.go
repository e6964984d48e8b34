// SPDX-License-Identifier: MIT

// Package primitives wraps the SDK's Sampler and Estimator execution
// primitives. Both return jobs; result conversion happens in the job package.
package primitives

import (
	"context"
	"fmt"

	"github.com/qbridge/qbridge/backend"
	"github.com/qbridge/qbridge/circuit"
	"github.com/qbridge/qbridge/internal/validate"
	"github.com/qbridge/qbridge/job"
	"github.com/qbridge/qbridge/pyrt"
)

// Option sets one named primitive option, forwarded verbatim.
type Option func(map[string]any)

// WithBackend runs the primitive against an explicit backend instead of the
// SDK default simulator.
func WithBackend(b *backend.Backend) Option {
	return func(m map[string]any) { m["backend"] = b.Handle() }
}

// WithSeed fixes the primitive's sampling seed.
func WithSeed(seed int64) Option {
	return func(m map[string]any) { m["seed_simulator"] = seed }
}

// WithShots sets the default shot count.
func WithShots(shots int) Option {
	return func(m map[string]any) { m["default_shots"] = shots }
}

func buildParams(opts []Option) map[string]any {
	m := map[string]any{}
	for _, opt := range opts {
		opt(m)
	}
	params := map[string]any{}
	if len(m) > 0 {
		params["options"] = m
	}
	return params
}

func handles(circs []*circuit.Circuit) ([]pyrt.Handle, error) {
	if len(circs) == 0 {
		return nil, fmt.Errorf("%w: no circuits", validate.ErrInvalid)
	}
	hs := make([]pyrt.Handle, len(circs))
	for i, c := range circs {
		if c == nil {
			return nil, fmt.Errorf("%w: nil circuit at index %d", validate.ErrInvalid, i)
		}
		hs[i] = c.Handle()
	}
	return hs, nil
}

// Sampler is a handle to a foreign sampler primitive.
type Sampler struct {
	rt     *pyrt.Runtime
	handle pyrt.Handle
}

// NewSampler builds a sampler primitive.
func NewSampler(ctx context.Context, opts ...Option) (*Sampler, error) {
	rt := pyrt.Default()
	h, err := rt.NewHandle(ctx, "sampler.new", buildParams(opts))
	if err != nil {
		return nil, err
	}
	return &Sampler{rt: rt, handle: h}, nil
}

// Run samples the given circuits. shots <= 0 leaves the shot count to the
// primitive's defaults.
func (s *Sampler) Run(ctx context.Context, circs []*circuit.Circuit, shots int) (*job.Job, error) {
	hs, err := handles(circs)
	if err != nil {
		return nil, err
	}
	params := map[string]any{"handle": s.handle, "circuits": hs}
	if shots > 0 {
		params["shots"] = shots
	}
	h, err := s.rt.NewHandle(ctx, "sampler.run", params)
	if err != nil {
		return nil, err
	}
	return job.Adopt(s.rt, h, job.KindCounts), nil
}

// Close releases the foreign sampler handle.
func (s *Sampler) Close(ctx context.Context) error {
	s.rt.Release(ctx, s.handle)
	s.handle = 0
	return nil
}
