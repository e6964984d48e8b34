// SPDX-License-Identifier: MIT

package pyrt

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/qbridge/qbridge/internal/metrics"
)

// Request is one frame sent to the worker.
type Request struct {
	ID     int64          `json:"id"`
	Op     string         `json:"op"`
	Params map[string]any `json:"params,omitempty"`
}

type response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *workerError    `json:"error"`
}

// Transport moves request frames to the foreign runtime and returns decoded
// results. Implementations must be safe for concurrent use.
type Transport interface {
	// Roundtrip sends one frame and waits for its response. Worker-raised
	// exceptions come back as *workerError values; transport failures wrap
	// ErrRuntime; context cancellation returns ctx.Err().
	Roundtrip(ctx context.Context, req Request) (json.RawMessage, error)
	// Close tears down the foreign runtime, best effort.
	Close(ctx context.Context) error
}

// maxFrameSize bounds a single response line. Statevector dumps for ~20 qubits
// fit comfortably; anything larger should not cross this boundary anyway.
const maxFrameSize = 64 << 20

// procTransport runs the worker as a Python subprocess and frames requests as
// newline-delimited JSON over its stdio.
type procTransport struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	workerF string // temp file holding the worker source

	writeMu sync.Mutex
	enc     *json.Encoder

	pendingMu sync.Mutex
	pending   map[int64]chan response

	closed    chan struct{}
	closeOnce sync.Once
	exitErr   error

	log zerolog.Logger
}

// spawnWorker writes the embedded worker source to a temp file and starts the
// interpreter on it.
func spawnWorker(ctx context.Context, python string, log zerolog.Logger) (*procTransport, error) {
	dir, err := os.MkdirTemp("", "qbridge-worker-*")
	if err != nil {
		return nil, fmt.Errorf("%w: stage worker source: %v", ErrRuntime, err)
	}
	path := filepath.Join(dir, "worker.py")
	if err := os.WriteFile(path, workerSource, 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: stage worker source: %v", ErrRuntime, err)
	}

	cmd := exec.Command(python, path)
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: stdin pipe: %v", ErrRuntime, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: stdout pipe: %v", ErrRuntime, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: stderr pipe: %v", ErrRuntime, err)
	}
	if err := cmd.Start(); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: start %s: %v", ErrRuntime, python, err)
	}

	t := &procTransport{
		cmd:     cmd,
		stdin:   stdin,
		workerF: dir,
		enc:     json.NewEncoder(stdin),
		pending: make(map[int64]chan response),
		closed:  make(chan struct{}),
		log:     log,
	}
	go t.readLoop(stdout)
	go t.drainStderr(stderr)
	metrics.RuntimeRestartsTotal.Inc()

	// The worker prints a ready frame (id 0) once the SDK import finished.
	// Callers gate on it via awaitReady.
	_ = ctx
	return t, nil
}

// awaitReady blocks until the worker has imported the SDK and answered the
// ready frame, or the context expires.
func (t *procTransport) awaitReady(ctx context.Context) error {
	ch := t.register(0)
	select {
	case resp := <-ch:
		if resp.Error != nil {
			return fmt.Errorf("%w: worker boot: %v", ErrRuntime, resp.Error)
		}
		return nil
	case <-t.closed:
		return fmt.Errorf("%w: worker exited during boot: %v", ErrRuntime, t.exitErr)
	case <-ctx.Done():
		return fmt.Errorf("%w: worker boot: %v", ErrRuntime, ctx.Err())
	}
}

func (t *procTransport) register(id int64) chan response {
	ch := make(chan response, 1)
	t.pendingMu.Lock()
	t.pending[id] = ch
	t.pendingMu.Unlock()
	return ch
}

func (t *procTransport) unregister(id int64) {
	t.pendingMu.Lock()
	delete(t.pending, id)
	t.pendingMu.Unlock()
}

func (t *procTransport) Roundtrip(ctx context.Context, req Request) (json.RawMessage, error) {
	select {
	case <-t.closed:
		return nil, fmt.Errorf("%w: worker is gone: %v", ErrRuntime, t.exitErr)
	default:
	}

	ch := t.register(req.ID)
	defer t.unregister(req.ID)

	t.writeMu.Lock()
	err := t.enc.Encode(req)
	t.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: write frame: %v", ErrRuntime, err)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-t.closed:
		return nil, fmt.Errorf("%w: worker exited mid-call: %v", ErrRuntime, t.exitErr)
	case <-ctx.Done():
		// The worker may still complete the op; only the wait is abandoned.
		return nil, ctx.Err()
	}
}

func (t *procTransport) readLoop(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64<<10), maxFrameSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp response
		if err := json.Unmarshal(line, &resp); err != nil {
			t.log.Warn().Err(err).Msg("discarding malformed worker frame")
			continue
		}
		t.pendingMu.Lock()
		ch, ok := t.pending[resp.ID]
		t.pendingMu.Unlock()
		if !ok {
			t.log.Debug().Int64("id", resp.ID).Msg("response for abandoned call")
			continue
		}
		ch <- resp
	}
	t.shutdown(scanner.Err())
}

func (t *procTransport) drainStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 64<<10), 1<<20)
	for scanner.Scan() {
		t.log.Debug().Str("stream", "stderr").Msg(scanner.Text())
	}
}

// shutdown marks the transport dead and reaps the process.
func (t *procTransport) shutdown(cause error) {
	t.closeOnce.Do(func() {
		t.exitErr = t.cmd.Wait()
		if t.exitErr == nil {
			t.exitErr = cause
		}
		close(t.closed)
		_ = os.RemoveAll(t.workerF)
	})
}

// Close asks the worker to exit, then kills it after a grace period. Teardown
// of the foreign runtime is known to be unreliable; errors here are advisory.
func (t *procTransport) Close(ctx context.Context) error {
	select {
	case <-t.closed:
		return nil
	default:
	}

	t.writeMu.Lock()
	_ = t.enc.Encode(Request{ID: -1, Op: "shutdown"})
	_ = t.stdin.Close()
	t.writeMu.Unlock()

	grace := 3 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem < grace {
			grace = rem
		}
	}

	select {
	case <-t.closed:
		return nil
	case <-time.After(grace):
		_ = t.cmd.Process.Kill()
	}

	select {
	case <-t.closed:
	case <-time.After(time.Second):
		t.log.Warn().Msg("worker did not exit after kill")
	}
	return nil
}
