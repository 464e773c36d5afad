package orbit

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega"
)

func TestGravity_TwoBodyAcceleration(t *testing.T) {
	g := NewWithT(t)

	agents := []Agent{
		{Name: "a", Mass: 1, State: State{X: 0, Y: 0}},
		{Name: "b", Mass: 2, State: State{X: 1, Y: 0}},
	}
	ax := make([]float64, 2)
	ay := make([]float64, 2)

	grav := NewGravity()
	g.Expect(grav.Accelerations(agents, ax, ay)).To(Succeed())

	// Unit separation: |a| = G*m_other/r^2 exactly.
	g.Expect(ax[0]).To(Equal(2.0))
	g.Expect(ax[1]).To(Equal(-1.0))
	g.Expect(ay[0]).To(BeZero())
	g.Expect(ay[1]).To(BeZero())
}

func TestGravity_ForceSymmetry(t *testing.T) {
	g := NewWithT(t)

	agents := []Agent{
		{Name: "a", Mass: 1.0, State: State{X: 0.3, Y: -0.7}},
		{Name: "b", Mass: 3.5, State: State{X: -1.2, Y: 0.4}},
		{Name: "c", Mass: 0.8, State: State{X: 0.9, Y: 1.1}},
		{Name: "d", Mass: 2.2, State: State{X: -0.1, Y: -1.6}},
	}
	ax := make([]float64, len(agents))
	ay := make([]float64, len(agents))

	g.Expect(NewGravity().Accelerations(agents, ax, ay)).To(Succeed())

	// Newton's third law: mass-weighted accelerations sum to zero.
	var fx, fy float64
	for i := range agents {
		fx += agents[i].Mass * ax[i]
		fy += agents[i].Mass * ay[i]
	}
	g.Expect(fx).To(BeNumerically("~", 0, 1e-12))
	g.Expect(fy).To(BeNumerically("~", 0, 1e-12))
}

func TestGravity_ZeroSeparation(t *testing.T) {
	g := NewWithT(t)

	agents := []Agent{
		{Name: "a", Mass: 1, State: State{X: 0.5, Y: 0.5}},
		{Name: "b", Mass: 1, State: State{X: 0.5, Y: 0.5}},
	}
	ax := make([]float64, 2)
	ay := make([]float64, 2)

	err := NewGravity().Accelerations(agents, ax, ay)
	g.Expect(err).To(HaveOccurred())

	var nerr *NumericalError
	g.Expect(errors.As(err, &nerr)).To(BeTrue())
	g.Expect(nerr.Agent).To(Equal("a"))
	g.Expect(nerr.Other).To(Equal("b"))
	g.Expect(err.Error()).To(ContainSubstring("zero separation"))
}

func TestGravity_SofteningAvoidsSingularity(t *testing.T) {
	g := NewWithT(t)

	agents := []Agent{
		{Name: "a", Mass: 1, State: State{}},
		{Name: "b", Mass: 1, State: State{}},
	}
	ax := make([]float64, 2)
	ay := make([]float64, 2)

	grav := Gravity{G: 1, Softening: 0.1}
	g.Expect(grav.Accelerations(agents, ax, ay)).To(Succeed())
	g.Expect(ax[0]).To(BeZero())
	g.Expect(ay[0]).To(BeZero())
}

func TestGravity_AccelerationOnMatchesPairLoop(t *testing.T) {
	g := NewWithT(t)

	agents := []Agent{
		{Name: "a", Mass: 1.0, State: State{X: 0.97000436, Y: -0.24308753}},
		{Name: "b", Mass: 1.3, State: State{X: -0.97000436, Y: 0.24308753}},
		{Name: "c", Mass: 0.7, State: State{X: 0, Y: 0}},
		{Name: "d", Mass: 2.1, State: State{X: 0.5, Y: 1.25}},
		{Name: "e", Mass: 0.4, State: State{X: -1.5, Y: -0.75}},
	}
	ax := make([]float64, len(agents))
	ay := make([]float64, len(agents))

	grav := NewGravity()
	g.Expect(grav.Accelerations(agents, ax, ay)).To(Succeed())

	// Per-agent sums must be bit-identical to the pair loop, not merely
	// close: the parallel path depends on it.
	for k := range agents {
		akx, aky, err := grav.AccelerationOn(agents, k)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(akx).To(Equal(ax[k]), "agent %s x", agents[k].Name)
		g.Expect(aky).To(Equal(ay[k]), "agent %s y", agents[k].Name)
	}
}

func TestGravity_Energy(t *testing.T) {
	g := NewWithT(t)

	// Two bodies at rest, separation 2: E = -G*m1*m2/r.
	atRest := []Agent{
		{Name: "a", Mass: 1, State: State{X: -1, Y: 0}},
		{Name: "b", Mass: 3, State: State{X: 1, Y: 0}},
	}
	g.Expect(NewGravity().Energy(atRest)).To(BeNumerically("~", -1.5, 1e-12))

	// Adding velocity adds 0.5*m*v^2 of kinetic energy.
	moving := []Agent{
		{Name: "a", Mass: 1, State: State{X: -1, Y: 0, VX: 0, VY: 2}},
		{Name: "b", Mass: 3, State: State{X: 1, Y: 0}},
	}
	g.Expect(NewGravity().Energy(moving)).To(BeNumerically("~", 0.5, 1e-12))
}
