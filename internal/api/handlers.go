// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/qbridge/qbridge/backend"
	"github.com/qbridge/qbridge/circuit"
	"github.com/qbridge/qbridge/internal/log"
	"github.com/qbridge/qbridge/internal/store"
	"github.com/qbridge/qbridge/internal/validate"
	"github.com/qbridge/qbridge/job"
	"github.com/qbridge/qbridge/primitives"
	"github.com/qbridge/qbridge/pyrt"
	"github.com/qbridge/qbridge/quantuminfo"
	"github.com/qbridge/qbridge/transpile"
)

// circuitProgram is the JSON gate-list form of a circuit.
type circuitProgram struct {
	NumQubits  int        `json:"num_qubits"`
	NumClbits  int        `json:"num_clbits"`
	Gates      []gateSpec `json:"gates"`
	MeasureAll bool       `json:"measure_all"`
}

type gateSpec struct {
	Name   string    `json:"name"`
	Qubits []int     `json:"qubits"`
	Clbit  *int      `json:"clbit,omitempty"`
	Params []float64 `json:"params,omitempty"`
}

type observableSpec struct {
	Labels []string  `json:"labels"`
	Coeffs []float64 `json:"coeffs"`
}

// throttle applies the global runtime-call limiter, if configured.
func (s *Server) throttle(r *http.Request) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(r.Context())
}

// build materializes a circuit program through the facade.
func build(r *http.Request, prog circuitProgram) (*circuit.Circuit, error) {
	ctx := r.Context()
	c, err := circuit.NewWithClbits(ctx, prog.NumQubits, prog.NumClbits)
	if err != nil {
		return nil, err
	}
	for _, g := range prog.Gates {
		if err := applyGate(r, c, g); err != nil {
			_ = c.Close(ctx)
			return nil, err
		}
	}
	if prog.MeasureAll {
		if _, err := c.MeasureAll(ctx); err != nil {
			_ = c.Close(ctx)
			return nil, err
		}
	}
	return c, nil
}

func applyGate(r *http.Request, c *circuit.Circuit, g gateSpec) error {
	ctx := r.Context()
	q := g.Qubits
	need := func(n int) error {
		if len(q) != n {
			return errInvalidf("gate %q needs %d qubits, got %d", g.Name, n, len(q))
		}
		return nil
	}
	needParams := func(n int) error {
		if len(g.Params) != n {
			return errInvalidf("gate %q needs %d params, got %d", g.Name, n, len(g.Params))
		}
		return nil
	}

	var err error
	switch g.Name {
	case "h", "x", "y", "z", "s", "sdg", "t", "tdg":
		if err = need(1); err != nil {
			return err
		}
		switch g.Name {
		case "h":
			_, err = c.H(ctx, q[0])
		case "x":
			_, err = c.X(ctx, q[0])
		case "y":
			_, err = c.Y(ctx, q[0])
		case "z":
			_, err = c.Z(ctx, q[0])
		case "s":
			_, err = c.S(ctx, q[0])
		case "sdg":
			_, err = c.Sdg(ctx, q[0])
		case "t":
			_, err = c.T(ctx, q[0])
		case "tdg":
			_, err = c.Tdg(ctx, q[0])
		}
	case "rx", "ry", "rz", "p":
		if err = need(1); err != nil {
			return err
		}
		if err = needParams(1); err != nil {
			return err
		}
		switch g.Name {
		case "rx":
			_, err = c.RX(ctx, g.Params[0], q[0])
		case "ry":
			_, err = c.RY(ctx, g.Params[0], q[0])
		case "rz":
			_, err = c.RZ(ctx, g.Params[0], q[0])
		case "p":
			_, err = c.P(ctx, g.Params[0], q[0])
		}
	case "cx", "cy", "cz", "swap":
		if err = need(2); err != nil {
			return err
		}
		switch g.Name {
		case "cx":
			_, err = c.CX(ctx, q[0], q[1])
		case "cy":
			_, err = c.CY(ctx, q[0], q[1])
		case "cz":
			_, err = c.CZ(ctx, q[0], q[1])
		case "swap":
			_, err = c.SWAP(ctx, q[0], q[1])
		}
	case "crz":
		if err = need(2); err != nil {
			return err
		}
		if err = needParams(1); err != nil {
			return err
		}
		_, err = c.CRZ(ctx, g.Params[0], q[0], q[1])
	case "ccx":
		if err = need(3); err != nil {
			return err
		}
		_, err = c.CCX(ctx, q[0], q[1], q[2])
	case "cswap":
		if err = need(3); err != nil {
			return err
		}
		_, err = c.CSWAP(ctx, q[0], q[1], q[2])
	case "measure":
		if err = need(1); err != nil {
			return err
		}
		if g.Clbit == nil {
			return errInvalidf("gate %q needs a clbit", g.Name)
		}
		_, err = c.Measure(ctx, q[0], *g.Clbit)
	case "barrier":
		_, err = c.Barrier(ctx, q...)
	case "reset":
		if err = need(1); err != nil {
			return err
		}
		_, err = c.Reset(ctx, q[0])
	default:
		return errInvalidf("unknown gate %q", g.Name)
	}
	return err
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if !pyrt.Default().Initialized() {
		status = "runtime down"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status})
}

func (s *Server) handleBackends(w http.ResponseWriter, r *http.Request) {
	if err := s.throttle(r); err != nil {
		writeError(w, r, err)
		return
	}
	names, err := backend.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backends": names})
}

func (s *Server) handleCreateCircuit(w http.ResponseWriter, r *http.Request) {
	var prog circuitProgram
	if err := decodeBody(r, &prog); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.throttle(r); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := build(r, prog)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := uuid.NewString()
	s.putCircuit(id, c)

	depth, err := c.Depth(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         id,
		"num_qubits": c.NumQubits(),
		"num_clbits": c.NumClbits(),
		"depth":      depth,
	})
}

type runRequest struct {
	Shots  int    `json:"shots"`
	Method string `json:"method"`
	Seed   *int64 `json:"seed,omitempty"`
}

func (s *Server) handleRunCircuit(w http.ResponseWriter, r *http.Request) {
	c, ok := s.circuitByID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown circuit"})
		return
	}
	var req runRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.throttle(r); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	var opts []backend.Option
	if req.Method != "" {
		opts = append(opts, backend.WithMethod(req.Method))
	}
	if req.Seed != nil {
		opts = append(opts, backend.WithSeed(*req.Seed))
	}
	b, err := backend.Aer(ctx, opts...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer func() { _ = b.Close(ctx) }()

	var runOpts []backend.RunOption
	if req.Shots > 0 {
		runOpts = append(runOpts, backend.RunShots(req.Shots))
	}
	j, err := b.Run(ctx, c, runOpts...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.registerJob(w, r, j)
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Circuit circuitProgram `json:"circuit"`
		Shots   int            `json:"shots"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.throttle(r); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	c, err := build(r, req.Circuit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer func() { _ = c.Close(ctx) }()

	sampler, err := primitives.NewSampler(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer func() { _ = sampler.Close(ctx) }()

	j, err := sampler.Run(ctx, []*circuit.Circuit{c}, req.Shots)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.registerJob(w, r, j)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Circuit     circuitProgram   `json:"circuit"`
		Observables []observableSpec `json:"observables"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.throttle(r); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	c, err := build(r, req.Circuit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer func() { _ = c.Close(ctx) }()

	observables := make([]*quantuminfo.PauliOp, len(req.Observables))
	circs := make([]*circuit.Circuit, len(req.Observables))
	for i, spec := range req.Observables {
		op, err := quantuminfo.NewPauliOp(ctx, spec.Labels, spec.Coeffs)
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer func() { _ = op.Close(ctx) }()
		observables[i] = op
		circs[i] = c
	}

	estimator, err := primitives.NewEstimator(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer func() { _ = estimator.Close(ctx) }()

	j, err := estimator.Run(ctx, circs, observables, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.registerJob(w, r, j)
}

func (s *Server) handleTranspile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Circuit           circuitProgram `json:"circuit"`
		OptimizationLevel *int           `json:"optimization_level,omitempty"`
		BasisGates        []string       `json:"basis_gates,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.throttle(r); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	c, err := build(r, req.Circuit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer func() { _ = c.Close(ctx) }()

	var opts []transpile.Option
	if req.OptimizationLevel != nil {
		opts = append(opts, transpile.WithOptimizationLevel(*req.OptimizationLevel))
	}
	if len(req.BasisGates) > 0 {
		opts = append(opts, transpile.WithBasisGates(req.BasisGates))
	}
	out, err := transpile.Run(ctx, c, opts...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer func() { _ = out.Close(ctx) }()

	depth, err := out.Depth(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	qasm, err := out.QASM(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"depth": depth, "qasm": qasm})
}

// registerJob records the job in memory and in the registry and answers 202.
func (s *Server) registerJob(w http.ResponseWriter, r *http.Request, j *job.Job) {
	s.putJob(j)
	if err := s.store.Insert(r.Context(), j.ID(), j.Kind(), time.Now().UTC()); err != nil {
		writeError(w, r, err)
		return
	}
	s.log.Info().
		Str(log.FieldJobID, j.ID()).
		Str("kind", string(j.Kind())).
		Msg("job submitted")
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": j.ID()})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Refresh from the SDK when the job is still live in this process.
	if j, ok := s.jobByID(id); ok && !rec.Status.Terminal() {
		status, err := j.Status(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if status != rec.Status {
			if err := s.store.SetStatus(r.Context(), id, status); err != nil {
				writeError(w, r, err)
				return
			}
			rec.Status = status
		}
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rec.Result != nil {
		writeJSON(w, http.StatusOK, rec)
		return
	}

	j, ok := s.jobByID(id)
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "job is not live in this process and has no stored result",
		})
		return
	}
	if err := s.throttle(r); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := j.Result(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.SetResult(r.Context(), id, res); err != nil {
		writeError(w, r, err)
		return
	}
	rec.Status = job.StatusDone
	rec.Result = res
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleJobExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	path, err := s.store.Export(r.Context(), s.cfg.DataDir, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// invalidError marks request-shape failures so writeError maps them to 400.
type invalidError struct{ msg string }

func (e *invalidError) Error() string { return e.msg }

func errInvalidf(format string, args ...any) error {
	return &invalidError{msg: fmt.Sprintf(format, args...)}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &invalidError{msg: "malformed request body: " + err.Error()}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps boundary errors onto HTTP statuses: invalid input 400,
// unknown IDs 404, SDK failures 422, timeouts 504, runtime trouble 503.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *invalidError
	var sdkErr *pyrt.SDKError

	code := http.StatusInternalServerError
	body := map[string]string{"error": err.Error()}
	switch {
	case errors.As(err, &invalid), errors.Is(err, validate.ErrInvalid):
		code = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		code = http.StatusNotFound
	case errors.As(err, &sdkErr):
		code = http.StatusUnprocessableEntity
		body["sdk_error_type"] = sdkErr.PyType
		body["sdk_error_message"] = sdkErr.Message
	case errors.Is(err, pyrt.ErrTimeout):
		code = http.StatusGatewayTimeout
	case errors.Is(err, pyrt.ErrRuntime), errors.Is(err, pyrt.ErrNotInitialized):
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, body)
}
