// SPDX-License-Identifier: MIT

// Package pyrttest provides a scripted in-memory Transport so boundary code
// can be tested without a Python interpreter.
package pyrttest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/qbridge/qbridge/pyrt"
)

// Call records one frame seen by the fake.
type Call struct {
	Op     string
	Params map[string]any
}

// Fake is a Transport whose responses are scripted per op. The zero value
// answers every op with null.
type Fake struct {
	mu      sync.Mutex
	results map[string][]any // op -> FIFO of results (or error values)
	calls   []Call
	closed  bool
}

// NewFake returns an empty fake transport.
func NewFake() *Fake {
	return &Fake{results: make(map[string][]any)}
}

// Respond queues a result for the next call of op. v may be any
// JSON-marshallable value, or an error to fail the call with.
func (f *Fake) Respond(op string, v any) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.results == nil {
		f.results = make(map[string][]any)
	}
	f.results[op] = append(f.results[op], v)
	return f
}

// FailWith queues a worker-style exception for the next call of op.
func (f *Fake) FailWith(op, pyType, message string) *Fake {
	return f.Respond(op, workerException{pyType: pyType, message: message})
}

// Calls returns the frames seen so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// LastCall returns the most recent frame, or a zero Call.
func (f *Fake) LastCall() Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return Call{}
	}
	return f.calls[len(f.calls)-1]
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// workerException marks a scripted response as a foreign exception. It is
// converted to the transport's worker error shape on the way out.
type workerException struct {
	pyType  string
	message string
}

func (f *Fake) Roundtrip(ctx context.Context, req pyrt.Request) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{Op: req.Op, Params: req.Params})
	var next any
	queue := f.results[req.Op]
	if len(queue) > 0 {
		next = queue[0]
		f.results[req.Op] = queue[1:]
	}
	f.mu.Unlock()

	switch v := next.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case workerException:
		return nil, pyrt.WorkerException(v.pyType, v.message)
	case error:
		return nil, v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("pyrttest: bad scripted result for %s: %w", req.Op, err)
		}
		return raw, nil
	}
}

func (f *Fake) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
