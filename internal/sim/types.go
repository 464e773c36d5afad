package sim

import (
	"errors"
	"time"

	"github.com/satwerk/gravsim/internal/orbit"
)

// Status is the lifecycle state of a Simulation. Transitions are
// created -> running -> completed|failed, with no way back; rerunning
// requires a new Simulation.
type Status int

const (
	StatusCreated Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrAlreadyStarted is returned by Run once a simulation has left the
// created state.
var ErrAlreadyStarted = errors.New("sim: run already started")

// Metric observes the agent set after each committed iteration and
// reduces it to a single value reported in the Result.
type Metric interface {
	Name() string
	Observe(iteration int, agents []orbit.Agent)
	Value() float64
	Reset()
}

// Result summarizes a finished run. On failure it describes the portion
// that completed; the records already written remain queryable through
// the simulation's store.
type Result struct {
	Status      Status
	Iterations  int
	Agents      int
	Elapsed     time.Duration
	EnergyDrift float64 // |E_final - E_initial| / |E_initial|
	Metrics     map[string]float64
}
