// Package httpapi serves simulation runs over HTTP: POST an
// initial-conditions document, get the computed trajectories back, and
// fetch the most recent completed run again later.
package httpapi

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/satwerk/gravsim/internal/config"
	"github.com/satwerk/gravsim/internal/runlog"
	"github.com/satwerk/gravsim/internal/runstore"
	"github.com/satwerk/gravsim/schemas"
)

// Server wires the run pipeline behind an HTTP mux. The run log is
// optional; the run store is not.
type Server struct {
	cfg      config.Server
	defaults config.Run
	logger   *log.Logger
	runs     *runstore.Store
	runlog   *runlog.Logger
	metrics  *Metrics
	schema   *jsonschema.Schema
	mux      *http.ServeMux
}

func NewServer(cfg config.Server, defaults config.Run, runs *runstore.Store, rl *runlog.Logger, logger *log.Logger) (*Server, error) {
	schema, err := jsonschema.CompileString("initial_conditions.schema.json", schemas.InitialConditions)
	if err != nil {
		return nil, fmt.Errorf("compile initial conditions schema: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		defaults: defaults,
		logger:   logger,
		runs:     runs,
		runlog:   rl,
		metrics:  NewMetrics(),
		schema:   schema,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", s.metrics)
	mux.HandleFunc("/simulation", s.handleSimulation)
	s.mux = mux
	return s, nil
}

// Handler returns the full middleware stack: request observation on the
// outside, CORS inside, then the mux.
func (s *Server) Handler() http.Handler {
	return s.observe(s.cors(s.mux))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.ObserveRequest(r.Method, metricPath(r.URL.Path), rec.status, time.Since(start))
	})
}

// metricPath folds unknown paths into one label so probe traffic cannot
// grow the exposition without bound.
func metricPath(p string) string {
	switch p {
	case "/", "/healthz", "/metrics", "/simulation":
		return p
	}
	return "other"
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
