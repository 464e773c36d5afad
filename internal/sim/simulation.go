package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/satwerk/gravsim/internal/orbit"
	"github.com/satwerk/gravsim/internal/rangestore"
)

// Simulation owns one run: the agent registry, the range store the run
// writes into, and the integrator that advances it. Instances are not
// safe for concurrent use and run at most once; concurrent runs each get
// their own Simulation.
type Simulation struct {
	agents  []orbit.Agent
	t0      []float64
	store   *rangestore.Store
	integ   *Integrator
	grav    orbit.Gravity
	cfg     Config
	metrics []Metric
	status  Status
	iters   int
}

// New validates cfg and the initial conditions and builds a ready-to-run
// simulation. Validation failures surface as *orbit.ValidationError
// before any state exists.
func New(ic orbit.InitialConditions, cfg Config) (*Simulation, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	agents, err := ic.Agents()
	if err != nil {
		return nil, err
	}

	t0 := make([]float64, len(agents))
	for i := range agents {
		t0[i] = agents[i].State.Time
	}

	grav := orbit.Gravity{G: cfg.G, Softening: cfg.Softening}
	return &Simulation{
		agents: agents,
		t0:     t0,
		store:  rangestore.New(),
		integ:  NewIntegrator(grav, cfg.Workers, len(agents)),
		grav:   grav,
		cfg:    cfg,
	}, nil
}

// AddMetric registers m. Call before Run.
func (s *Simulation) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }

// Run drives the integrator until the configured bounds are reached, the
// context is cancelled, or an iteration fails. Cancellation is checked
// between iterations only. The result is populated on failure too, and
// records written before a failing iteration stay queryable through the
// store.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	if s.status != StatusCreated {
		return nil, ErrAlreadyStarted
	}
	s.status = StatusRunning

	for _, m := range s.metrics {
		m.Reset()
	}
	initialEnergy := s.grav.Energy(s.agents)
	started := time.Now()

	for i := 0; i < s.cfg.Iterations; i++ {
		select {
		case <-ctx.Done():
			s.status = StatusFailed
			return s.result(started, initialEnergy), fmt.Errorf("iteration %d: %w", i, ctx.Err())
		default:
		}

		if s.cfg.MaxTime > 0 && s.elapsed() >= s.cfg.MaxTime {
			break
		}

		if err := s.integ.Advance(s.agents, s.store); err != nil {
			s.status = StatusFailed
			return s.result(started, initialEnergy), fmt.Errorf("iteration %d: %w", i, err)
		}
		s.iters++

		for _, m := range s.metrics {
			m.Observe(i, s.agents)
		}
	}

	s.status = StatusCompleted
	return s.result(started, initialEnergy), nil
}

// elapsed is the simulated time every agent has covered so far, i.e. the
// slowest agent's progress. MaxTime is measured against it so that no
// agent's trajectory stops short of the requested span.
func (s *Simulation) elapsed() float64 {
	min := math.Inf(1)
	for i := range s.agents {
		if e := s.agents[i].State.Time - s.t0[i]; e < min {
			min = e
		}
	}
	return min
}

func (s *Simulation) result(started time.Time, initialEnergy float64) *Result {
	r := &Result{
		Status:     s.status,
		Iterations: s.iters,
		Agents:     len(s.agents),
		Elapsed:    time.Since(started),
		Metrics:    make(map[string]float64, len(s.metrics)),
	}

	finalEnergy := s.grav.Energy(s.agents)
	if initialEnergy != 0 {
		r.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}
	for _, m := range s.metrics {
		r.Metrics[m.Name()] = m.Value()
	}
	return r
}

// Export returns the run's accumulated output document.
func (s *Simulation) Export() rangestore.Document { return s.store.Export() }

// Store exposes the run's range store for point and range queries.
func (s *Simulation) Store() *rangestore.Store { return s.store }

// Status returns the lifecycle state.
func (s *Simulation) Status() Status { return s.status }

// Agents returns a snapshot of the current agent states.
func (s *Simulation) Agents() []orbit.Agent {
	out := make([]orbit.Agent, len(s.agents))
	copy(out, s.agents)
	return out
}
