// SPDX-License-Identifier: MIT

package primitives

import (
	"context"
	"fmt"

	"github.com/qbridge/qbridge/internal/validate"
	"github.com/qbridge/qbridge/job"
	"github.com/qbridge/qbridge/pyrt"

	"github.com/qbridge/qbridge/circuit"
	"github.com/qbridge/qbridge/quantuminfo"
)

// Estimator is a handle to a foreign estimator primitive.
type Estimator struct {
	rt     *pyrt.Runtime
	handle pyrt.Handle
}

// NewEstimator builds an estimator primitive.
func NewEstimator(ctx context.Context, opts ...Option) (*Estimator, error) {
	rt := pyrt.Default()
	h, err := rt.NewHandle(ctx, "estimator.new", buildParams(opts))
	if err != nil {
		return nil, err
	}
	return &Estimator{rt: rt, handle: h}, nil
}

// Run estimates one observable per circuit. parameterValues may be nil for
// unparameterized circuits; when present it must be one row per circuit and
// is forwarded verbatim.
func (e *Estimator) Run(ctx context.Context, circs []*circuit.Circuit, observables []*quantuminfo.PauliOp, parameterValues [][]float64) (*job.Job, error) {
	hs, err := handles(circs)
	if err != nil {
		return nil, err
	}
	if len(observables) != len(circs) {
		return nil, fmt.Errorf("%w: %d circuits but %d observables",
			validate.ErrInvalid, len(circs), len(observables))
	}
	obs := make([]pyrt.Handle, len(observables))
	for i, o := range observables {
		if o == nil {
			return nil, fmt.Errorf("%w: nil observable at index %d", validate.ErrInvalid, i)
		}
		obs[i] = o.Handle()
	}
	if parameterValues != nil && len(parameterValues) != len(circs) {
		return nil, fmt.Errorf("%w: %d circuits but %d parameter rows",
			validate.ErrInvalid, len(circs), len(parameterValues))
	}

	params := map[string]any{
		"handle":      e.handle,
		"circuits":    hs,
		"observables": obs,
	}
	if parameterValues != nil {
		params["parameter_values"] = parameterValues
	}
	h, err := e.rt.NewHandle(ctx, "estimator.run", params)
	if err != nil {
		return nil, err
	}
	return job.Adopt(e.rt, h, job.KindExpectation), nil
}

// Close releases the foreign estimator handle.
func (e *Estimator) Close(ctx context.Context) error {
	e.rt.Release(ctx, e.handle)
	e.handle = 0
	return nil
}
