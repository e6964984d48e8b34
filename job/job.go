// SPDX-License-Identifier: MIT

// Package job wraps SDK job handles. A job is created by backend or
// primitive runs; the only blocking operation is Result, which forwards any
// context deadline into the SDK's own result polling.
package job

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qbridge/qbridge/internal/log"
	"github.com/qbridge/qbridge/internal/metrics"
	"github.com/qbridge/qbridge/pyrt"
)

// Status is the normalized SDK job status.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusQueued       Status = "queued"
	StatusValidating   Status = "validating"
	StatusRunning      Status = "running"
	StatusDone         Status = "done"
	StatusCancelled    Status = "cancelled"
	StatusError        Status = "error"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusCancelled, StatusError:
		return true
	}
	return false
}

// Kind tells the worker how to decode the terminal result.
type Kind string

const (
	// KindCounts decodes results into outcome-bitstring count maps.
	KindCounts Kind = "counts"
	// KindExpectation decodes results into expectation values.
	KindExpectation Kind = "expvals"
)

// Counts maps an outcome bitstring to its observed count.
type Counts map[string]int

// Result is the converted terminal result of a job. Exactly one of Counts or
// ExpectationValues is populated, per the job's kind.
type Result struct {
	Counts            []Counts       `json:"counts,omitempty"`
	ExpectationValues []float64      `json:"expectation_values,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// Job is a handle to an SDK job plus a client-side ID for correlation.
type Job struct {
	rt     *pyrt.Runtime
	handle pyrt.Handle
	kind   Kind
	id     string
}

// Adopt binds an SDK job handle returned by a run call.
func Adopt(rt *pyrt.Runtime, h pyrt.Handle, kind Kind) *Job {
	return &Job{rt: rt, handle: h, kind: kind, id: uuid.NewString()}
}

// ID returns the client-side job ID.
func (j *Job) ID() string { return j.id }

// Kind returns the result kind of the job.
func (j *Job) Kind() Kind { return j.kind }

// Handle exposes the foreign reference.
func (j *Job) Handle() pyrt.Handle { return j.handle }

// Status queries the SDK job status.
func (j *Job) Status(ctx context.Context) (Status, error) {
	ctx = log.ContextWithJobID(ctx, j.id)
	var raw string
	if err := j.rt.Call(ctx, "job.status", map[string]any{"handle": j.handle}, &raw); err != nil {
		return "", err
	}
	return normalize(raw), nil
}

// Result blocks on the SDK's single result poll. When ctx carries a deadline,
// the remaining time is forwarded as the poll's timeout parameter; there is
// no other cancellation or retry machinery.
func (j *Job) Result(ctx context.Context) (*Result, error) {
	ctx = log.ContextWithJobID(ctx, j.id)
	params := map[string]any{"handle": j.handle}
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem > 0 {
			params["timeout"] = rem.Seconds()
		}
	}
	var res struct {
		Kind              string         `json:"kind"`
		Counts            []Counts       `json:"counts"`
		ExpectationValues []float64      `json:"expectation_values"`
		Metadata          map[string]any `json:"metadata"`
	}
	if err := j.rt.Call(ctx, "job.result", params, &res); err != nil {
		metrics.JobsTotal.WithLabelValues(string(StatusError)).Inc()
		return nil, err
	}
	metrics.JobsTotal.WithLabelValues(string(StatusDone)).Inc()
	return &Result{
		Counts:            res.Counts,
		ExpectationValues: res.ExpectationValues,
		Metadata:          res.Metadata,
	}, nil
}

// Cancel forwards a cancellation request to the SDK job.
func (j *Job) Cancel(ctx context.Context) error {
	ctx = log.ContextWithJobID(ctx, j.id)
	if err := j.rt.Call(ctx, "job.cancel", map[string]any{"handle": j.handle}, nil); err != nil {
		return err
	}
	metrics.JobsTotal.WithLabelValues(string(StatusCancelled)).Inc()
	return nil
}

// Close releases the foreign job handle.
func (j *Job) Close(ctx context.Context) error {
	j.rt.Release(ctx, j.handle)
	j.handle = 0
	return nil
}

// normalize lowercases the SDK status name. Unknown statuses pass through so
// callers still see what the SDK said.
func normalize(raw string) Status {
	return Status(strings.ToLower(raw))
}
