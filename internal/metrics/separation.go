package metrics

import (
	"math"

	"github.com/satwerk/gravsim/internal/orbit"
)

// MinSeparation records the closest approach between any pair of agents
// over the run. A value creeping toward zero flags an orbit heading for
// the singularity guard.
type MinSeparation struct {
	name    string
	min     float64
	samples int
}

func NewMinSeparation() *MinSeparation {
	return &MinSeparation{name: "min_separation", min: math.Inf(1)}
}

func (m *MinSeparation) Name() string { return m.name }

func (m *MinSeparation) Observe(iteration int, agents []orbit.Agent) {
	for i := range agents {
		for j := i + 1; j < len(agents); j++ {
			dx := agents[j].State.X - agents[i].State.X
			dy := agents[j].State.Y - agents[i].State.Y
			if d := math.Hypot(dx, dy); d < m.min {
				m.min = d
			}
		}
	}
	m.samples++
}

// Value returns the closest approach seen, or 0 before any observation.
func (m *MinSeparation) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.min
}

func (m *MinSeparation) Reset() {
	m.min = math.Inf(1)
	m.samples = 0
}
