// SPDX-License-Identifier: MIT

// Package pyrt hosts the foreign runtime that runs the wrapped quantum SDK.
//
// The runtime is a Python worker subprocess speaking newline-delimited
// JSON-RPC over stdio. All SDK objects stay inside the worker; this side
// holds opaque handles and converts results at the boundary. The package
// owns exactly three things: frame marshalling, the process-wide init guard,
// and error translation.
package pyrt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/qbridge/qbridge/internal/log"
	"github.com/qbridge/qbridge/internal/metrics"
)

// Handle is an opaque reference to an object owned by the worker.
type Handle int64

// Config holds the runtime knobs. Zero values get defaults.
type Config struct {
	Python      string        // interpreter executable, default "python3"
	BootTimeout time.Duration // worker boot (SDK import) budget, default 30s
	CallTimeout time.Duration // default per-call deadline, 0 = none
}

func (c Config) withDefaults() Config {
	if c.Python == "" {
		c.Python = "python3"
	}
	if c.BootTimeout == 0 {
		c.BootTimeout = 30 * time.Second
	}
	return c
}

// Runtime is the process-wide bridge to the worker. Init is guarded: the
// second and later calls are no-ops while the runtime is up.
type Runtime struct {
	mu          sync.Mutex
	initialized bool
	transport   Transport
	cfg         Config
	seq         atomic.Int64
}

var defaultRuntime Runtime

// Default returns the process-wide runtime.
func Default() *Runtime {
	return &defaultRuntime
}

// Init spawns the worker and waits for the SDK import to finish. Calling Init
// on an initialized runtime is a no-op.
func (r *Runtime) Init(ctx context.Context, cfg Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return nil
	}
	cfg = cfg.withDefaults()

	logger := log.WithComponent("pyrt")
	bootCtx, cancel := context.WithTimeout(ctx, cfg.BootTimeout)
	defer cancel()

	t, err := spawnWorker(bootCtx, cfg.Python, logger)
	if err != nil {
		return err
	}
	if err := t.awaitReady(bootCtx); err != nil {
		_ = t.Close(context.Background())
		return err
	}

	logger.Info().Str("python", cfg.Python).Msg("foreign runtime ready")
	r.transport = t
	r.cfg = cfg
	r.initialized = true
	return nil
}

// Initialized reports whether the runtime is up.
func (r *Runtime) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// Close tears the worker down, best effort, and clears the init guard so a
// later Init starts a fresh worker.
func (r *Runtime) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return nil
	}
	err := r.transport.Close(ctx)
	r.transport = nil
	r.initialized = false
	return err
}

// Call delegates one operation to the worker and decodes the result into out
// (out may be nil for ops without a result). Every failure is translated per
// the boundary taxonomy before it is returned.
func (r *Runtime) Call(ctx context.Context, op string, params map[string]any, out any) error {
	r.mu.Lock()
	t := r.transport
	cfg := r.cfg
	r.mu.Unlock()
	if t == nil {
		return fmt.Errorf("%s: %w", op, ErrNotInitialized)
	}

	if cfg.CallTimeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.CallTimeout)
			defer cancel()
		}
	}

	logger := log.WithComponentFromContext(ctx, "pyrt")
	start := time.Now()
	metrics.RuntimeCallsTotal.WithLabelValues(op).Inc()

	raw, err := t.Roundtrip(ctx, Request{ID: r.seq.Add(1), Op: op, Params: params})
	elapsed := time.Since(start)
	metrics.RuntimeCallSeconds.WithLabelValues(op).Observe(elapsed.Seconds())

	if err != nil {
		terr := translate(op, marshalParams(params), err)
		kind := errKind(terr)
		metrics.RuntimeErrorsTotal.WithLabelValues(kind).Inc()
		logger.Warn().
			Str(log.FieldOp, op).
			Str(log.FieldErrKind, kind).
			Int64(log.FieldElapsed, elapsed.Milliseconds()).
			Err(terr).
			Msg("delegated call failed")
		return terr
	}

	logger.Debug().
		Str(log.FieldOp, op).
		Int64(log.FieldElapsed, elapsed.Milliseconds()).
		Msg("delegated call done")

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		metrics.RuntimeErrorsTotal.WithLabelValues("runtime").Inc()
		return fmt.Errorf("%s: %w: decode result: %v", op, ErrRuntime, err)
	}
	return nil
}

// NewHandle is a Call variant for constructor ops: it decodes the result as a
// handle and bumps the live-handles gauge.
func (r *Runtime) NewHandle(ctx context.Context, op string, params map[string]any) (Handle, error) {
	var h Handle
	if err := r.Call(ctx, op, params, &h); err != nil {
		return 0, err
	}
	metrics.HandlesLive.Inc()
	return h, nil
}

// Release frees a worker-side handle. Failures are logged, not returned:
// release is a cleanup path and the worker reaps everything at exit anyway.
func (r *Runtime) Release(ctx context.Context, h Handle) {
	if h == 0 {
		return
	}
	if err := r.Call(ctx, "release", map[string]any{"handle": h}, nil); err != nil {
		l := log.WithComponent("pyrt")
		l.Debug().
			Int64(log.FieldHandle, int64(h)).
			Err(err).
			Msg("release failed")
		return
	}
	metrics.HandlesLive.Dec()
}

// Activate binds r to an already-running transport, marking it initialized.
// It exists for tests and for embedders that manage the worker themselves.
// The returned func restores the previous state.
func (r *Runtime) Activate(t Transport, cfg Config) (restore func()) {
	r.mu.Lock()
	prevT, prevCfg, prevInit := r.transport, r.cfg, r.initialized
	r.transport = t
	r.cfg = cfg
	r.initialized = true
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.transport, r.cfg, r.initialized = prevT, prevCfg, prevInit
		r.mu.Unlock()
	}
}

func marshalParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	b, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%v", params)
	}
	return string(b)
}
