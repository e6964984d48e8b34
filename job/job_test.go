// SPDX-License-Identifier: MIT

package job_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qbridge/qbridge/job"
	"github.com/qbridge/qbridge/pyrt"
	"github.com/qbridge/qbridge/pyrt/pyrttest"
)

func stub(t *testing.T) (*pyrttest.Fake, *pyrt.Runtime) {
	t.Helper()
	fake := pyrttest.NewFake()
	rt := &pyrt.Runtime{}
	restore := rt.Activate(fake, pyrt.Config{})
	t.Cleanup(restore)
	return fake, rt
}

func TestStatusNormalization(t *testing.T) {
	cases := []struct {
		raw  string
		want job.Status
	}{
		{"DONE", job.StatusDone},
		{"done", job.StatusDone},
		{"RUNNING", job.StatusRunning},
		{"QUEUED", job.StatusQueued},
		{"CANCELLED", job.StatusCancelled},
		{"weird_new_state", job.Status("weird_new_state")},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			fake, rt := stub(t)
			fake.Respond("job.status", tc.raw)

			j := job.Adopt(rt, 5, job.KindCounts)
			got, err := j.Status(context.Background())
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	require.True(t, job.StatusDone.Terminal())
	require.True(t, job.StatusError.Terminal())
	require.True(t, job.StatusCancelled.Terminal())
	require.False(t, job.StatusRunning.Terminal())
	require.False(t, job.StatusQueued.Terminal())
}

func TestResult_ForwardsDeadlineAsTimeout(t *testing.T) {
	fake, rt := stub(t)
	fake.Respond("job.result", map[string]any{
		"kind":   "counts",
		"counts": []map[string]int{{"00": 510, "11": 514}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j := job.Adopt(rt, 5, job.KindCounts)
	res, err := j.Result(ctx)
	require.NoError(t, err)
	require.Len(t, res.Counts, 1)
	require.Equal(t, 510, res.Counts[0]["00"])

	timeout, ok := fake.LastCall().Params["timeout"].(float64)
	require.True(t, ok, "deadline must be forwarded as a timeout parameter")
	require.Greater(t, timeout, 0.0)
	require.LessOrEqual(t, timeout, 30.0)
}

func TestResult_NoDeadlineNoTimeoutParam(t *testing.T) {
	fake, rt := stub(t)
	fake.Respond("job.result", map[string]any{"kind": "counts", "counts": []map[string]int{}})

	j := job.Adopt(rt, 5, job.KindCounts)
	_, err := j.Result(context.Background())
	require.NoError(t, err)

	_, present := fake.LastCall().Params["timeout"]
	require.False(t, present, "no deadline means no timeout parameter")
}

func TestResult_ExpectationValues(t *testing.T) {
	fake, rt := stub(t)
	fake.Respond("job.result", map[string]any{
		"kind":               "expvals",
		"expectation_values": []float64{0.97, -0.02},
	})

	j := job.Adopt(rt, 8, job.KindExpectation)
	res, err := j.Result(context.Background())
	require.NoError(t, err)
	require.Equal(t, []float64{0.97, -0.02}, res.ExpectationValues)
	require.Empty(t, res.Counts)
}

func TestJobIDsAreUnique(t *testing.T) {
	_, rt := stub(t)
	a := job.Adopt(rt, 1, job.KindCounts)
	b := job.Adopt(rt, 2, job.KindCounts)
	require.NotEmpty(t, a.ID())
	require.NotEqual(t, a.ID(), b.ID())
}

func TestCancel(t *testing.T) {
	fake, rt := stub(t)
	j := job.Adopt(rt, 3, job.KindCounts)
	require.NoError(t, j.Cancel(context.Background()))
	require.Equal(t, "job.cancel", fake.LastCall().Op)
}
