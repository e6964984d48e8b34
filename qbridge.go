// SPDX-License-Identifier: MIT

// Package qbridge re-exposes a Python quantum-computing SDK (Qiskit) to Go.
//
// The SDK runs in an embedded foreign runtime; the subpackages (circuit,
// backend, primitives, quantuminfo, transpile, job) wrap its object model
// behind context-first Go functions. This package owns initialization and
// teardown of the shared runtime.
//
//	if err := qbridge.Init(ctx); err != nil { ... }
//	defer qbridge.Close(context.Background())
//
//	qc, err := circuit.New(ctx, 2)
//	qc, err = qc.H(ctx, 0)
//	qc, err = qc.CX(ctx, 0, 1)
package qbridge

import (
	"context"
	"time"

	"github.com/qbridge/qbridge/pyrt"
)

// Re-exported boundary errors, so callers need not import pyrt for
// errors.Is checks.
var (
	ErrSDK            = pyrt.ErrSDK
	ErrRuntime        = pyrt.ErrRuntime
	ErrTimeout        = pyrt.ErrTimeout
	ErrNotInitialized = pyrt.ErrNotInitialized
)

// SDKError is the rich error carrying the foreign exception and call context.
type SDKError = pyrt.SDKError

// Option adjusts runtime initialization.
type Option func(*pyrt.Config)

// WithPython selects the interpreter executable (default "python3").
func WithPython(python string) Option {
	return func(c *pyrt.Config) { c.Python = python }
}

// WithBootTimeout bounds the worker boot (SDK import) time.
func WithBootTimeout(d time.Duration) Option {
	return func(c *pyrt.Config) { c.BootTimeout = d }
}

// WithCallTimeout sets a default deadline applied to calls whose context has
// none.
func WithCallTimeout(d time.Duration) Option {
	return func(c *pyrt.Config) { c.CallTimeout = d }
}

// Init starts the shared foreign runtime. Calling Init while the runtime is
// up is a no-op.
func Init(ctx context.Context, opts ...Option) error {
	var cfg pyrt.Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return pyrt.Default().Init(ctx, cfg)
}

// Initialized reports whether the shared runtime is up.
func Initialized() bool {
	return pyrt.Default().Initialized()
}

// Close tears the shared runtime down, best effort. A later Init starts a
// fresh worker.
func Close(ctx context.Context) error {
	return pyrt.Default().Close(ctx)
}
