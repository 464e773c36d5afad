package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"
)

// defBuckets are the default Prometheus histogram bounds, which suit
// request and simulation timings here.
var defBuckets = []float64{.005, .01, .025, .05, .075, .1, .25, .5, .75, 1, 2.5, 5, 7.5, 10}

type histogram struct {
	bounds []float64
	counts []int64 // cumulative per bound
	sum    float64
	count  int64
}

func newHistogram(bounds []float64) *histogram {
	return &histogram{bounds: bounds, counts: make([]int64, len(bounds))}
}

func (h *histogram) observe(v float64) {
	for i, ub := range h.bounds {
		if v <= ub {
			h.counts[i]++
		}
	}
	h.sum += v
	h.count++
}

func (h *histogram) expose(w io.Writer, name, help string) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s histogram\n", name)
	for i, ub := range h.bounds {
		fmt.Fprintf(w, "%s_bucket{le=%q} %d\n", name, strconv.FormatFloat(ub, 'g', -1, 64), h.counts[i])
	}
	fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", name, h.count)
	fmt.Fprintf(w, "%s_sum %g\n", name, h.sum)
	fmt.Fprintf(w, "%s_count %d\n", name, h.count)
}

type requestKey struct {
	method string
	path   string
	status int
}

// Metrics accumulates request and run counters and serves them in the
// Prometheus text exposition format.
type Metrics struct {
	mu         sync.Mutex
	requests   map[requestKey]int64
	runs       map[string]int64
	requestDur *histogram
	simDur     *histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		requests:   make(map[requestKey]int64),
		runs:       make(map[string]int64),
		requestDur: newHistogram(defBuckets),
		simDur:     newHistogram(defBuckets),
	}
}

func (m *Metrics) ObserveRequest(method, path string, status int, dur time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[requestKey{method, path, status}]++
	m.requestDur.observe(dur.Seconds())
}

func (m *Metrics) ObserveRun(status string, dur time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[status]++
	m.simDur.observe(dur.Seconds())
}

func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	fmt.Fprintf(w, "# HELP http_requests_total Requests served, by method, path and status.\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	reqKeys := make([]requestKey, 0, len(m.requests))
	for k := range m.requests {
		reqKeys = append(reqKeys, k)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		a, b := reqKeys[i], reqKeys[j]
		if a.path != b.path {
			return a.path < b.path
		}
		if a.method != b.method {
			return a.method < b.method
		}
		return a.status < b.status
	})
	for _, k := range reqKeys {
		fmt.Fprintf(w, "http_requests_total{method=%q,path=%q,status=\"%d\"} %d\n",
			k.method, k.path, k.status, m.requests[k])
	}

	m.requestDur.expose(w, "http_request_duration_seconds", "Wall time per request.")

	fmt.Fprintf(w, "# HELP simulation_runs_total Simulation runs, by final status.\n")
	fmt.Fprintf(w, "# TYPE simulation_runs_total counter\n")
	runKeys := make([]string, 0, len(m.runs))
	for k := range m.runs {
		runKeys = append(runKeys, k)
	}
	sort.Strings(runKeys)
	for _, k := range runKeys {
		fmt.Fprintf(w, "simulation_runs_total{status=%q} %d\n", k, m.runs[k])
	}

	m.simDur.expose(w, "simulation_duration_seconds", "Wall time per simulation run.")
}
