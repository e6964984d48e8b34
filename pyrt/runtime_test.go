// SPDX-License-Identifier: MIT

package pyrt_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qbridge/qbridge/pyrt"
	"github.com/qbridge/qbridge/pyrt/pyrttest"
)

func TestInit_SecondCallIsNoOp(t *testing.T) {
	rt := &pyrt.Runtime{}
	fake := pyrttest.NewFake()
	restore := rt.Activate(fake, pyrt.Config{})
	defer restore()

	// The runtime is up; Init must return nil without spawning anything.
	require.NoError(t, rt.Init(context.Background(), pyrt.Config{Python: "/does/not/exist"}))
	require.True(t, rt.Initialized())
	require.Empty(t, fake.Calls(), "no-op Init must not touch the transport")
}

func TestCall_BeforeInitFails(t *testing.T) {
	rt := &pyrt.Runtime{}
	err := rt.Call(context.Background(), "ping", nil, nil)
	require.ErrorIs(t, err, pyrt.ErrNotInitialized)
}

func TestCall_DecodesResult(t *testing.T) {
	rt := &pyrt.Runtime{}
	fake := pyrttest.NewFake().Respond("circuit.depth", 7)
	restore := rt.Activate(fake, pyrt.Config{})
	defer restore()

	var depth int
	require.NoError(t, rt.Call(context.Background(), "circuit.depth", map[string]any{"handle": 1}, &depth))
	require.Equal(t, 7, depth)
	require.Equal(t, "circuit.depth", fake.LastCall().Op)
}

func TestCall_WorkerExceptionIsTranslated(t *testing.T) {
	rt := &pyrt.Runtime{}
	fake := pyrttest.NewFake().FailWith("circuit.gate", "CircuitError", "qubit index 5 out of range")
	restore := rt.Activate(fake, pyrt.Config{})
	defer restore()

	err := rt.Call(context.Background(), "circuit.gate", map[string]any{"handle": 1}, nil)
	require.ErrorIs(t, err, pyrt.ErrSDK)

	var sdkErr *pyrt.SDKError
	require.ErrorAs(t, err, &sdkErr)
	require.Equal(t, "circuit.gate", sdkErr.Op)
	require.Equal(t, "qubit index 5 out of range", sdkErr.Message)
}

func TestNewHandle(t *testing.T) {
	rt := &pyrt.Runtime{}
	fake := pyrttest.NewFake().Respond("circuit.new", 42)
	restore := rt.Activate(fake, pyrt.Config{})
	defer restore()

	h, err := rt.NewHandle(context.Background(), "circuit.new", map[string]any{"num_qubits": 2})
	require.NoError(t, err)
	require.Equal(t, pyrt.Handle(42), h)
}

func TestRelease_SwallowsErrors(t *testing.T) {
	rt := &pyrt.Runtime{}
	fake := pyrttest.NewFake().FailWith("release", "KeyError", "unknown handle 9")
	restore := rt.Activate(fake, pyrt.Config{})
	defer restore()

	// Must not panic or surface the error.
	rt.Release(context.Background(), 9)
	require.Len(t, fake.Calls(), 1)
}

func TestClose_ClearsInitGuard(t *testing.T) {
	rt := &pyrt.Runtime{}
	fake := pyrttest.NewFake()
	_ = rt.Activate(fake, pyrt.Config{})

	require.NoError(t, rt.Close(context.Background()))
	require.True(t, fake.Closed())
	require.False(t, rt.Initialized())

	// The runtime is closed; calls fail with the init sentinel.
	err := rt.Call(context.Background(), "ping", nil, nil)
	require.True(t, errors.Is(err, pyrt.ErrNotInitialized))
}

func TestCall_CancelledContext(t *testing.T) {
	rt := &pyrt.Runtime{}
	fake := pyrttest.NewFake()
	restore := rt.Activate(fake, pyrt.Config{})
	defer restore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := rt.Call(ctx, "ping", nil, nil)
	require.Error(t, err)
}
