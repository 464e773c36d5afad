// Package metrics provides run metrics that watch the agent set after
// each committed iteration and reduce the run to summary values.
package metrics

import (
	"math"

	"github.com/satwerk/gravsim/internal/orbit"
)

// EnergyDrift tracks the largest relative departure of total mechanical
// energy from its first observed value.
type EnergyDrift struct {
	name     string
	grav     orbit.Gravity
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(grav orbit.Gravity) *EnergyDrift {
	return &EnergyDrift{name: "energy_drift", grav: grav}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(iteration int, agents []orbit.Agent) {
	energy := e.grav.Energy(agents)

	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
