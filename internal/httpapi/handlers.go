package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/satwerk/gravsim/internal/orbit"
	"github.com/satwerk/gravsim/internal/runlog"
	"github.com/satwerk/gravsim/internal/runstore"
	"github.com/satwerk/gravsim/internal/sim"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<p>Gravsim API - running!</p>")
}

func (s *Server) handleSimulation(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getSimulation(w, r)
	case http.MethodPost:
		s.postSimulation(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// getSimulation replays the most recent completed run byte for byte.
func (s *Server) getSimulation(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Latest(r.Context())
	if errors.Is(err, runstore.ErrNotFound) {
		http.Error(w, "no completed simulation yet", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Printf("load latest run: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(run.Data)
}

// postSimulation runs an initial-conditions document through the
// integrator and answers with the trajectory document. Only completed
// runs are persisted; failed ones still land in the run log.
func (s *Server) postSimulation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("request body exceeds %d bytes", s.cfg.MaxBodyBytes), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "read request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		http.Error(w, "malformed JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.schema.Validate(raw); err != nil {
		http.Error(w, "invalid initial conditions: "+err.Error(), http.StatusBadRequest)
		return
	}

	ic, err := orbit.DecodeInitialConditions(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(ic) > s.cfg.MaxAgents {
		http.Error(w, fmt.Sprintf("too many agents: %d (limit %d)", len(ic), s.cfg.MaxAgents), http.StatusRequestEntityTooLarge)
		return
	}

	cfg := s.defaults.SimConfig()
	if v := r.URL.Query().Get("iterations"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > s.cfg.MaxIterations {
			http.Error(w, fmt.Sprintf("iterations must be an integer in [1,%d]", s.cfg.MaxIterations), http.StatusBadRequest)
			return
		}
		cfg.Iterations = n
	}
	if v := r.URL.Query().Get("max_time"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "max_time must be a number", http.StatusBadRequest)
			return
		}
		cfg.MaxTime = t
	}
	if cfg.Iterations > s.cfg.MaxIterations {
		cfg.Iterations = s.cfg.MaxIterations
	}

	buildStart := time.Now()
	run, err := sim.New(ic, cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	buildTime := time.Since(buildStart)

	res, err := run.Run(r.Context())
	if err != nil {
		s.recordRun(0, res, err)
		var numErr *orbit.NumericalError
		if errors.As(err, &numErr) {
			s.logger.Printf("run diverged: %v", err)
			http.Error(w, "simulation failed: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}
		s.logger.Printf("run failed: %v", err)
		http.Error(w, "simulation failed", http.StatusInternalServerError)
		return
	}

	data, err := json.Marshal(run.Export())
	if err != nil {
		s.logger.Printf("marshal run output: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Persist with a fresh context so a client that hangs up after the
	// run finished does not cost us the result.
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := s.runs.Save(saveCtx, res.Status.String(), res.Iterations, res.Agents, data)
	if err != nil {
		s.logger.Printf("save run: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.recordRun(id, res, nil)
	s.logger.Printf("run %d: status=%s agents=%d iterations=%d build=%s simulate=%s drift=%.3g",
		id, res.Status, res.Agents, res.Iterations,
		buildTime.Round(time.Microsecond), res.Elapsed.Round(time.Microsecond), res.EnergyDrift)

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) recordRun(id int64, res *sim.Result, runErr error) {
	status := sim.StatusFailed.String()
	var wall time.Duration
	iters, agents := 0, 0
	if res != nil {
		status = res.Status.String()
		wall = res.Elapsed
		iters = res.Iterations
		agents = res.Agents
	}
	s.metrics.ObserveRun(status, wall)

	if s.runlog == nil {
		return
	}
	e := runlog.Entry{
		RunID:      id,
		Status:     status,
		Iterations: iters,
		Agents:     agents,
		WallMS:     wall.Seconds() * 1e3,
	}
	if runErr != nil {
		e.Error = runErr.Error()
	}
	if err := s.runlog.Record(e); err != nil {
		s.logger.Printf("run log: %v", err)
	}
}
