package orbit

import "math"

// Defaults applied when the initial-conditions document omits a field.
const (
	DefaultTimeStep = 0.01
	DefaultMass     = 1.0
	DefaultG        = 1.0
)

// State is the kinematic state of one agent at one instant. A new value is
// produced per step; states already written to the range store are never
// mutated.
type State struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	Time     float64 `json:"time"`
	TimeStep float64 `json:"timeStep"`
}

// IsFinite reports whether every field is a finite number.
func (s State) IsFinite() bool {
	for _, v := range [...]float64{s.X, s.Y, s.VX, s.VY, s.Time, s.TimeStep} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Radius returns the distance from the coordinate origin.
func (s State) Radius() float64 {
	return math.Hypot(s.X, s.Y)
}

// Speed returns the magnitude of the velocity vector.
func (s State) Speed() float64 {
	return math.Hypot(s.VX, s.VY)
}

// Agent is one simulated body: a caller-assigned unique name, a mass, and
// the current kinematic state. The set of agents is fixed for the lifetime
// of a run.
type Agent struct {
	Name  string
	Mass  float64
	State State
}
