package config

import (
	"sort"

	"github.com/satwerk/gravsim/internal/orbit"
	"github.com/satwerk/gravsim/internal/sim"
)

func f(v float64) *float64 { return &v }

// Preset is a ready-to-run scenario: named initial conditions plus the
// run parameters they behave well under.
type Preset struct {
	Description string
	Initial     orbit.InitialConditions
	Run         Run
}

var Presets = map[string]Preset{
	"nano": {
		Description: "light probe slingshotting past a heavier body",
		Initial: orbit.InitialConditions{
			"Body1": {X: f(0), Y: f(0.1), VX: f(0.1), VY: f(0)},
			"Body2": {X: f(0), Y: f(1), VX: f(1), VY: f(0)},
		},
		Run: Run{Iterations: sim.DefaultIterations, G: 1},
	},
	"binary": {
		Description: "equal-mass circular binary",
		Initial: orbit.InitialConditions{
			"A": {X: f(-0.5), Y: f(0), VX: f(0), VY: f(-0.7071067811865476)},
			"B": {X: f(0.5), Y: f(0), VX: f(0), VY: f(0.7071067811865476)},
		},
		Run: Run{Iterations: 1000, G: 1},
	},
	"figure8": {
		Description: "three equal masses chasing each other along a figure eight",
		Initial: orbit.InitialConditions{
			"A": {
				X: f(0.97000436), Y: f(-0.24308753),
				VX: f(0.466203685), VY: f(0.43236573),
				TimeStep: f(0.001),
			},
			"B": {
				X: f(-0.97000436), Y: f(0.24308753),
				VX: f(0.466203685), VY: f(0.43236573),
				TimeStep: f(0.001),
			},
			"C": {
				X: f(0), Y: f(0),
				VX: f(-0.93240737), VY: f(-0.86473146),
				TimeStep: f(0.001),
			},
		},
		// One full period of the orbit.
		Run: Run{Iterations: 6326, G: 1},
	},
}

// GetPreset returns the named preset, or nil when it does not exist.
func GetPreset(name string) *Preset {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return &p
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
