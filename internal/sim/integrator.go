package sim

import (
	"sync"

	"github.com/satwerk/gravsim/internal/orbit"
	"github.com/satwerk/gravsim/internal/rangestore"
)

// Integrator advances the full agent set by one global iteration of
// semi-implicit Euler: accelerations from the shared pre-step snapshot,
// velocity updated first, position from the new velocity, each agent on
// its own time step.
type Integrator struct {
	grav    orbit.Gravity
	workers int
	ax, ay  []float64
	next    []orbit.State
}

// NewIntegrator sizes scratch buffers for n agents. workers <= 1 computes
// accelerations serially; both paths produce bit-identical states.
func NewIntegrator(grav orbit.Gravity, workers, n int) *Integrator {
	return &Integrator{
		grav:    grav,
		workers: workers,
		ax:      make([]float64, n),
		ay:      make([]float64, n),
		next:    make([]orbit.State, n),
	}
}

// Advance computes one iteration over agents and appends each resulting
// state to store. The iteration commits atomically: on error no agent has
// advanced and no record has been written, so agents never drift out of
// lock-step.
func (it *Integrator) Advance(agents []orbit.Agent, store *rangestore.Store) error {
	if err := it.accelerations(agents); err != nil {
		return err
	}

	// Candidate states only; nothing commits until every agent's next
	// state checks out.
	for i := range agents {
		st := agents[i].State
		dt := st.TimeStep

		st.VX += it.ax[i] * dt
		st.VY += it.ay[i] * dt
		st.X += st.VX * dt
		st.Y += st.VY * dt
		st.Time += dt

		if !st.IsFinite() {
			return &orbit.NumericalError{Agent: agents[i].Name, Reason: "non-finite state"}
		}
		if st.Time <= agents[i].State.Time {
			return &orbit.NumericalError{Agent: agents[i].Name, Reason: "time step underflow"}
		}
		it.next[i] = st
	}

	for i := range agents {
		rec := rangestore.Record{
			Start: agents[i].State.Time,
			End:   it.next[i].Time,
			State: it.next[i],
		}
		if err := store.Append(agents[i].Name, rec); err != nil {
			return err
		}
		agents[i].State = it.next[i]
	}
	return nil
}

func (it *Integrator) accelerations(agents []orbit.Agent) error {
	if it.workers <= 1 || len(agents) < 2 {
		return it.grav.Accelerations(agents, it.ax, it.ay)
	}

	n := len(agents)
	workers := it.workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	errs := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}

		go func(w, start, end int) {
			defer wg.Done()
			for k := start; k < end; k++ {
				ax, ay, err := it.grav.AccelerationOn(agents, k)
				if err != nil {
					errs[w] = err
					return
				}
				it.ax[k], it.ay[k] = ax, ay
			}
		}(w, start, end)
	}

	wg.Wait()

	// Chunks are index-ordered, so the first error reported matches what
	// the serial path would have hit.
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
