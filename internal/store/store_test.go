// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qbridge/qbridge/job"
)

func open(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, dir
}

func TestInsertGetRoundTrip(t *testing.T) {
	s, _ := open(t)
	ctx := context.Background()
	submitted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Insert(ctx, "j-1", job.KindCounts, submitted))

	rec, err := s.Get(ctx, "j-1")
	require.NoError(t, err)
	require.Equal(t, "j-1", rec.ID)
	require.Equal(t, job.KindCounts, rec.Kind)
	require.Equal(t, job.StatusQueued, rec.Status)
	require.Equal(t, submitted, rec.SubmittedAt)
	require.Nil(t, rec.Result)
}

func TestGet_UnknownID(t *testing.T) {
	s, _ := open(t)
	_, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetResultMarksDone(t *testing.T) {
	s, _ := open(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, "j-2", job.KindCounts, time.Now()))

	res := &job.Result{Counts: []job.Counts{{"00": 512, "11": 512}}}
	require.NoError(t, s.SetResult(ctx, "j-2", res))

	rec, err := s.Get(ctx, "j-2")
	require.NoError(t, err)
	require.Equal(t, job.StatusDone, rec.Status)
	require.Equal(t, res.Counts, rec.Result.Counts)
}

func TestSetStatus_UnknownID(t *testing.T) {
	s, _ := open(t)
	err := s.SetStatus(context.Background(), "nope", job.StatusRunning)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList_NewestFirst(t *testing.T) {
	s, _ := open(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	require.NoError(t, s.Insert(ctx, "old", job.KindCounts, base))
	require.NoError(t, s.Insert(ctx, "new", job.KindExpectation, base.Add(time.Minute)))

	recs, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "new", recs[0].ID)
	require.Equal(t, "old", recs[1].ID)
}

func TestExport_WritesValidJSON(t *testing.T) {
	s, dir := open(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, "j-3", job.KindExpectation, time.Now()))
	require.NoError(t, s.SetResult(ctx, "j-3", &job.Result{ExpectationValues: []float64{0.5}}))

	path, err := s.Export(ctx, dir, "j-3")
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec Record
	require.NoError(t, json.Unmarshal(raw, &rec))
	require.Equal(t, "j-3", rec.ID)
	require.Equal(t, []float64{0.5}, rec.Result.ExpectationValues)
}
