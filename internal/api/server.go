// SPDX-License-Identifier: MIT

// Package api provides the HTTP surface of the qbridge daemon. Handlers only
// call the public facade packages; no SDK logic lives here.
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/qbridge/qbridge/internal/config"
	"github.com/qbridge/qbridge/internal/log"
	"github.com/qbridge/qbridge/internal/store"
	"github.com/qbridge/qbridge/job"

	"github.com/qbridge/qbridge/circuit"
)

// Server carries the daemon's request-scoped state: the job registry plus
// in-process handle tables for circuits and jobs created over the API.
type Server struct {
	cfg   config.Config
	store *store.Store
	log   zerolog.Logger

	// limiter throttles runtime-bound requests across all clients; nil
	// means unthrottled.
	limiter *rate.Limiter

	mu       sync.RWMutex
	circuits map[string]*circuit.Circuit
	jobs     map[string]*job.Job
}

// New builds a Server. st may not be nil.
func New(cfg config.Config, st *store.Store) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		log:      log.WithComponent("api"),
		circuits: make(map[string]*circuit.Circuit),
		jobs:     make(map[string]*job.Job),
	}
	if cfg.RuntimeCallsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RuntimeCallsPerSecond), 1)
	}
	return s
}

// Handler returns the routed handler with the full middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(measure)
	if s.cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.Limit(
			s.cfg.RateLimitPerMinute,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
	}

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/backends", s.handleBackends)
		r.Post("/circuits", s.handleCreateCircuit)
		r.Post("/circuits/{id}/run", s.handleRunCircuit)
		r.Post("/transpile", s.handleTranspile)
		r.Post("/sample", s.handleSample)
		r.Post("/estimate", s.handleEstimate)
		r.Get("/jobs/{id}", s.handleJobStatus)
		r.Get("/jobs/{id}/result", s.handleJobResult)
		r.Post("/jobs/{id}/export", s.handleJobExport)
	})

	return otelhttp.NewHandler(r, "qbridge.api")
}

// circuitByID looks up a circuit created earlier in this process.
func (s *Server) circuitByID(id string) (*circuit.Circuit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.circuits[id]
	return c, ok
}

func (s *Server) putCircuit(id string, c *circuit.Circuit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.circuits[id] = c
}

func (s *Server) jobByID(id string) (*job.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

func (s *Server) putJob(j *job.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID()] = j
}
