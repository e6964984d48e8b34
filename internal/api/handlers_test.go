// SPDX-License-Identifier: MIT

package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qbridge/qbridge/internal/api"
	"github.com/qbridge/qbridge/internal/config"
	"github.com/qbridge/qbridge/internal/store"
	"github.com/qbridge/qbridge/pyrt"
	"github.com/qbridge/qbridge/pyrt/pyrttest"
)

func newTestServer(t *testing.T) (http.Handler, *pyrttest.Fake) {
	t.Helper()

	fake := pyrttest.NewFake()
	restore := pyrt.Default().Activate(fake, pyrt.Config{})
	t.Cleanup(restore)

	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	cfg.RateLimitPerMinute = 0

	st, err := store.Open(cfg.DataDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return api.New(cfg, st).Handler(), fake
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), "body: %s", rec.Body.String())
	return m
}

const bellProgram = `{
	"num_qubits": 2,
	"gates": [
		{"name": "h", "qubits": [0]},
		{"name": "cx", "qubits": [0, 1]}
	],
	"measure_all": true
}`

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode(t, rec)["status"])
}

func TestHealthz_RuntimeDown(t *testing.T) {
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	st, err := store.Open(cfg.DataDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	rec := doJSON(t, api.New(cfg, st).Handler(), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateCircuit(t *testing.T) {
	h, fake := newTestServer(t)
	fake.Respond("circuit.new", 7)
	fake.Respond("circuit.depth", 3)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/circuits", bellProgram)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	require.NotEmpty(t, body["id"])
	require.EqualValues(t, 2, body["num_qubits"])
	require.EqualValues(t, 3, body["depth"])
}

func TestCreateCircuit_UnknownGate(t *testing.T) {
	h, fake := newTestServer(t)
	fake.Respond("circuit.new", 7)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/circuits",
		`{"num_qubits": 1, "gates": [{"name": "frobnicate", "qubits": [0]}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode(t, rec)["error"], "frobnicate")
}

func TestCreateCircuit_QubitOutOfRange(t *testing.T) {
	h, fake := newTestServer(t)
	fake.Respond("circuit.new", 7)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/circuits",
		`{"num_qubits": 2, "gates": [{"name": "h", "qubits": [2]}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCircuit_MalformedBody(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/circuits", `{"num_qubits": `)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunCircuit_UnknownID(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/circuits/nope/run", `{"shots": 100}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunCircuit_JobLifecycle(t *testing.T) {
	h, fake := newTestServer(t)
	fake.Respond("circuit.new", 7)
	fake.Respond("circuit.depth", 3)
	fake.Respond("backend.aer", 8)
	fake.Respond("backend.run", 9)
	fake.Respond("job.status", "running")
	fake.Respond("job.result", map[string]any{
		"kind":   "counts",
		"counts": []map[string]int{{"00": 51, "11": 49}},
	})

	rec := doJSON(t, h, http.MethodPost, "/api/v1/circuits", bellProgram)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	circuitID := decode(t, rec)["id"].(string)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/circuits/"+circuitID+"/run", `{"shots": 100}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	jobID := decode(t, rec)["job_id"].(string)
	require.NotEmpty(t, jobID)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/jobs/"+jobID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "running", decode(t, rec)["status"])

	rec = doJSON(t, h, http.MethodGet, "/api/v1/jobs/"+jobID+"/result", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	require.Equal(t, "done", body["status"])
	require.NotNil(t, body["result"])

	// A second fetch is served from the registry, without another poll.
	calls := len(fake.Calls())
	rec = doJSON(t, h, http.MethodGet, "/api/v1/jobs/"+jobID+"/result", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, fake.Calls(), calls)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/jobs/"+jobID+"/export", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	path := decode(t, rec)["path"].(string)
	_, err := os.Stat(filepath.Clean(path))
	require.NoError(t, err)
}

func TestJobStatus_Unknown(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/jobs/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTranspile(t *testing.T) {
	h, fake := newTestServer(t)
	fake.Respond("circuit.new", 7)
	fake.Respond("transpile.run", 8)
	fake.Respond("circuit.depth", 2)
	fake.Respond("circuit.qasm", "OPENQASM 3.0;")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/transpile",
		`{"circuit": `+bellProgram+`, "optimization_level": 2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	require.EqualValues(t, 2, body["depth"])
	require.Equal(t, "OPENQASM 3.0;", body["qasm"])
}

func TestTranspile_LevelOutOfRange(t *testing.T) {
	h, fake := newTestServer(t)
	fake.Respond("circuit.new", 7)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/transpile",
		`{"circuit": `+bellProgram+`, "optimization_level": 4}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSample(t *testing.T) {
	h, fake := newTestServer(t)
	fake.Respond("circuit.new", 7)
	fake.Respond("sampler.new", 8)
	fake.Respond("sampler.run", 9)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/sample",
		`{"circuit": `+bellProgram+`, "shots": 256}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.NotEmpty(t, decode(t, rec)["job_id"])
}

func TestEstimate_SDKErrorSurfaces(t *testing.T) {
	h, fake := newTestServer(t)
	fake.Respond("circuit.new", 7)
	fake.FailWith("qi.pauliop_new", "QiskitError", "invalid Pauli label")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/estimate",
		`{"circuit": {"num_qubits": 1, "gates": [{"name": "h", "qubits": [0]}]},
		  "observables": [{"labels": ["Q"], "coeffs": [1.0]}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	body := decode(t, rec)
	require.Equal(t, "QiskitError", body["sdk_error_type"])
	require.Contains(t, body["sdk_error_message"], "invalid Pauli label")
}
