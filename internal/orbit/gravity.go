package orbit

import "math"

// Gravity is the pairwise Newtonian force model. Softening, when non-zero,
// bounds the inverse-square term near close encounters; with the zero
// default, coincident positions are a NumericalError rather than an Inf.
type Gravity struct {
	G         float64
	Softening float64
}

// NewGravity returns the model with unit gravitational constant and no
// softening.
func NewGravity() Gravity {
	return Gravity{G: DefaultG}
}

// Accelerations fills ax and ay with the net gravitational acceleration on
// every agent, computed from the same positional snapshot. Each pair is
// visited once and contributes equal-magnitude, opposite-direction forces
// to both members.
func (g Gravity) Accelerations(agents []Agent, ax, ay []float64) error {
	for i := range ax {
		ax[i], ay[i] = 0, 0
	}

	eps2 := g.Softening * g.Softening
	for i := 0; i < len(agents); i++ {
		xi, yi := agents[i].State.X, agents[i].State.Y

		for j := i + 1; j < len(agents); j++ {
			dx := agents[j].State.X - xi
			dy := agents[j].State.Y - yi
			r2 := dx*dx + dy*dy + eps2
			if r2 == 0 {
				return &NumericalError{
					Agent:  agents[i].Name,
					Other:  agents[j].Name,
					Reason: "zero separation",
				}
			}

			rInv := 1.0 / math.Sqrt(r2)
			r3Inv := rInv * rInv * rInv

			fi := g.G * agents[j].Mass * r3Inv
			ax[i] += fi * dx
			ay[i] += fi * dy

			fj := g.G * agents[i].Mass * r3Inv
			ax[j] -= fj * dx
			ay[j] -= fj * dy
		}
	}
	return nil
}

// AccelerationOn returns the net gravitational acceleration on agents[k].
// Contributions accumulate in ascending index order, which keeps the
// result bit-identical to the pair loop in Accelerations.
func (g Gravity) AccelerationOn(agents []Agent, k int) (ax, ay float64, err error) {
	eps2 := g.Softening * g.Softening
	xk, yk := agents[k].State.X, agents[k].State.Y

	for j := range agents {
		if j == k {
			continue
		}
		dx := agents[j].State.X - xk
		dy := agents[j].State.Y - yk
		r2 := dx*dx + dy*dy + eps2
		if r2 == 0 {
			lo, hi := k, j
			if j < k {
				lo, hi = j, k
			}
			return 0, 0, &NumericalError{
				Agent:  agents[lo].Name,
				Other:  agents[hi].Name,
				Reason: "zero separation",
			}
		}

		rInv := 1.0 / math.Sqrt(r2)
		r3Inv := rInv * rInv * rInv

		f := g.G * agents[j].Mass * r3Inv
		ax += f * dx
		ay += f * dy
	}
	return ax, ay, nil
}

// Energy returns the total mechanical energy of the system: kinetic plus
// pairwise gravitational potential.
func (g Gravity) Energy(agents []Agent) float64 {
	eps2 := g.Softening * g.Softening
	ke := 0.0
	pe := 0.0

	for i := range agents {
		vx, vy := agents[i].State.VX, agents[i].State.VY
		ke += 0.5 * agents[i].Mass * (vx*vx + vy*vy)

		for j := i + 1; j < len(agents); j++ {
			dx := agents[j].State.X - agents[i].State.X
			dy := agents[j].State.Y - agents[i].State.Y
			r := math.Sqrt(dx*dx + dy*dy + eps2)
			if r == 0 {
				continue
			}
			pe -= g.G * agents[i].Mass * agents[j].Mass / r
		}
	}
	return ke + pe
}
