package orbit

// Momentum returns the total linear momentum of the system.
func Momentum(agents []Agent) (px, py float64) {
	for i := range agents {
		px += agents[i].Mass * agents[i].State.VX
		py += agents[i].Mass * agents[i].State.VY
	}
	return
}

// AngularMomentum returns the total angular momentum about the origin.
func AngularMomentum(agents []Agent) float64 {
	l := 0.0
	for i := range agents {
		s := agents[i].State
		l += agents[i].Mass * (s.X*s.VY - s.Y*s.VX)
	}
	return l
}
