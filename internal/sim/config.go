package sim

import (
	"math"

	"github.com/satwerk/gravsim/internal/orbit"
)

// DefaultIterations is the global iteration count used when the caller
// does not choose one.
const DefaultIterations = 500

// Config bounds one run. Iterations is the hard stop; MaxTime, when
// positive, additionally stops the run once every agent has simulated at
// least that much time. A run is never unbounded.
type Config struct {
	Iterations int
	MaxTime    float64
	G          float64
	Softening  float64
	Workers    int // acceleration workers per iteration; <=1 runs serial
}

// DefaultConfig is 500 iterations of unit-G gravity with no softening.
func DefaultConfig() Config {
	return Config{
		Iterations: DefaultIterations,
		G:          orbit.DefaultG,
	}
}

func (c Config) validate() error {
	if c.Iterations <= 0 {
		return &orbit.ValidationError{Field: "iterations", Reason: "must be positive"}
	}
	if math.IsNaN(c.MaxTime) || math.IsInf(c.MaxTime, 0) || c.MaxTime < 0 {
		return &orbit.ValidationError{Field: "maxTime", Reason: "must be a non-negative finite number"}
	}
	if math.IsNaN(c.G) || math.IsInf(c.G, 0) || c.G <= 0 {
		return &orbit.ValidationError{Field: "g", Reason: "must be a positive finite number"}
	}
	if math.IsNaN(c.Softening) || math.IsInf(c.Softening, 0) || c.Softening < 0 {
		return &orbit.ValidationError{Field: "softening", Reason: "must be a non-negative finite number"}
	}
	return nil
}
