package metrics

import (
	"math"

	"github.com/satwerk/gravsim/internal/orbit"
)

// MomentumDrift tracks the largest distance of the total linear momentum
// vector from its first observed value. Absolute rather than relative,
// since systems often start with zero net momentum.
type MomentumDrift struct {
	name     string
	px0, py0 float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(iteration int, agents []orbit.Agent) {
	px, py := orbit.Momentum(agents)

	if m.samples == 0 {
		m.px0, m.py0 = px, py
	}
	m.samples++

	drift := math.Hypot(px-m.px0, py-m.py0)
	m.maxDrift = math.Max(m.maxDrift, drift)
}

func (m *MomentumDrift) Value() float64 {
	return m.maxDrift
}

func (m *MomentumDrift) Reset() {
	m.px0, m.py0 = 0, 0
	m.maxDrift = 0
	m.samples = 0
}
