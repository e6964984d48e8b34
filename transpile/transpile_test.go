// SPDX-License-Identifier: MIT

package transpile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qbridge/qbridge/circuit"
	"github.com/qbridge/qbridge/internal/validate"
	"github.com/qbridge/qbridge/pyrt"
	"github.com/qbridge/qbridge/pyrt/pyrttest"
	"github.com/qbridge/qbridge/transpile"
)

func stub(t *testing.T) *pyrttest.Fake {
	t.Helper()
	fake := pyrttest.NewFake()
	restore := pyrt.Default().Activate(fake, pyrt.Config{})
	t.Cleanup(restore)
	return fake
}

func TestRun_ReturnsNewCircuitHandle(t *testing.T) {
	fake := stub(t)
	fake.Respond("circuit.new", 1)
	fake.Respond("transpile.run", 9)

	ctx := context.Background()
	c, err := circuit.New(ctx, 3)
	require.NoError(t, err)

	out, err := transpile.Run(ctx, c, transpile.WithOptimizationLevel(2), transpile.WithSeed(7))
	require.NoError(t, err)
	require.NotSame(t, c, out)
	require.Equal(t, pyrt.Handle(9), out.Handle())
	require.Equal(t, 3, out.NumQubits())

	opts, _ := fake.LastCall().Params["options"].(map[string]any)
	require.Equal(t, 2, opts["optimization_level"])
	require.Equal(t, int64(7), opts["seed_transpiler"])
}

func TestRun_OptimizationLevelRange(t *testing.T) {
	fake := stub(t)
	fake.Respond("circuit.new", 1)

	ctx := context.Background()
	c, err := circuit.New(ctx, 2)
	require.NoError(t, err)
	before := len(fake.Calls())

	for _, level := range []int{-1, 4} {
		_, err := transpile.Run(ctx, c, transpile.WithOptimizationLevel(level))
		require.ErrorIs(t, err, validate.ErrInvalid, "level=%d", level)
	}
	require.Len(t, fake.Calls(), before, "rejected options must not reach the runtime")
}

func TestRun_LayoutValidatedAgainstCircuitWidth(t *testing.T) {
	fake := stub(t)
	fake.Respond("circuit.new", 1)
	fake.Respond("transpile.run", 5)

	ctx := context.Background()
	c, err := circuit.New(ctx, 2)
	require.NoError(t, err)

	_, err = transpile.Run(ctx, c, transpile.WithLayout([]int{0, 2}))
	require.ErrorIs(t, err, validate.ErrInvalid)

	_, err = transpile.Run(ctx, c, transpile.WithLayout([]int{1, 0}))
	require.NoError(t, err)
}
