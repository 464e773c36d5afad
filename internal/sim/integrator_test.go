package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/satwerk/gravsim/internal/orbit"
	"github.com/satwerk/gravsim/internal/rangestore"
)

func pairedAgents(dt float64) []orbit.Agent {
	return []orbit.Agent{
		{Name: "A", Mass: 1, State: orbit.State{X: 0, Y: 0, TimeStep: dt}},
		{Name: "B", Mass: 1, State: orbit.State{X: 1, Y: 0, TimeStep: dt}},
	}
}

func TestAdvance_SymplecticUpdate(t *testing.T) {
	dt := 0.01
	agents := pairedAgents(dt)
	store := rangestore.New()

	integ := NewIntegrator(orbit.NewGravity(), 0, len(agents))
	if err := integ.Advance(agents, store); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	// Unit separation and unit masses: a = (+1, 0) on A, (-1, 0) on B.
	// Velocity updates first; position then uses the new velocity, so X
	// moves on the very first step.
	wantV := 1.0 * dt
	wantX := 0.0 + wantV*dt
	a := agents[0].State
	if a.VX != wantV {
		t.Errorf("A.VX = %v, want %v", a.VX, wantV)
	}
	if a.X != wantX {
		t.Errorf("A.X = %v, want %v (position must use the updated velocity)", a.X, wantX)
	}
	if agents[1].State.VX != -wantV {
		t.Errorf("B.VX = %v, want %v", agents[1].State.VX, -wantV)
	}
	if a.Time != dt {
		t.Errorf("A.Time = %v, want %v", a.Time, dt)
	}

	for _, name := range []string{"A", "B"} {
		rec, ok := store.Query(name, dt/2)
		if !ok {
			t.Fatalf("no record for %s", name)
		}
		if rec.Start != 0 || rec.End != dt {
			t.Errorf("%s record = [%v, %v), want [0, %v)", name, rec.Start, rec.End, dt)
		}
	}
}

func TestAdvance_UsesPreStepSnapshot(t *testing.T) {
	// Three collinear agents; the middle one's acceleration must come
	// from the outer agents' original positions even though they move in
	// the same iteration.
	agents := []orbit.Agent{
		{Name: "L", Mass: 1, State: orbit.State{X: -1, TimeStep: 0.01}},
		{Name: "M", Mass: 1, State: orbit.State{X: 0, TimeStep: 0.01}},
		{Name: "R", Mass: 1, State: orbit.State{X: 1, TimeStep: 0.01}},
	}
	store := rangestore.New()

	integ := NewIntegrator(orbit.NewGravity(), 0, len(agents))
	if err := integ.Advance(agents, store); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	// Symmetric neighbors cancel exactly on the middle agent.
	if got := agents[1].State.VX; got != 0 {
		t.Errorf("M.VX = %v, want 0", got)
	}
	if got := agents[1].State.X; got != 0 {
		t.Errorf("M.X = %v, want 0", got)
	}
}

func TestAdvance_AtomicOnFailure(t *testing.T) {
	agents := pairedAgents(0.01)
	store := rangestore.New()
	integ := NewIntegrator(orbit.NewGravity(), 0, len(agents))

	if err := integ.Advance(agents, store); err != nil {
		t.Fatalf("first advance failed: %v", err)
	}

	// Poison one agent; the next iteration must fail without committing
	// anything for either agent.
	agents[0].State.VX = math.Inf(1)
	before := agents[1].State

	err := integ.Advance(agents, store)
	if err == nil {
		t.Fatal("expected advance to fail")
	}
	var nerr *orbit.NumericalError
	if !errors.As(err, &nerr) {
		t.Fatalf("error type = %T, want *orbit.NumericalError", err)
	}
	if nerr.Agent != "A" {
		t.Errorf("error names agent %q, want A", nerr.Agent)
	}

	if store.Len("A") != 1 || store.Len("B") != 1 {
		t.Errorf("failed iteration appended records: A=%d B=%d, want 1/1",
			store.Len("A"), store.Len("B"))
	}
	if agents[1].State != before {
		t.Error("failed iteration mutated an agent that had a valid candidate")
	}
}

func TestAdvance_ZeroSeparation(t *testing.T) {
	agents := []orbit.Agent{
		{Name: "A", Mass: 1, State: orbit.State{X: 0.5, Y: 0.5, TimeStep: 0.01}},
		{Name: "B", Mass: 1, State: orbit.State{X: 0.5, Y: 0.5, TimeStep: 0.01}},
	}
	store := rangestore.New()
	integ := NewIntegrator(orbit.NewGravity(), 0, len(agents))

	err := integ.Advance(agents, store)
	var nerr *orbit.NumericalError
	if !errors.As(err, &nerr) {
		t.Fatalf("error = %v, want *orbit.NumericalError", err)
	}
	if store.Len("A") != 0 || store.Len("B") != 0 {
		t.Error("singular iteration must not append records")
	}
}

func TestAdvance_ParallelMatchesSerial(t *testing.T) {
	mk := func() []orbit.Agent {
		return []orbit.Agent{
			{Name: "a", Mass: 1.0, State: orbit.State{X: 0.97, Y: -0.24, VX: 0.46, VY: 0.43, TimeStep: 0.01}},
			{Name: "b", Mass: 1.3, State: orbit.State{X: -0.97, Y: 0.24, VX: 0.46, VY: 0.43, TimeStep: 0.01}},
			{Name: "c", Mass: 0.7, State: orbit.State{X: 0, Y: 0, VX: -0.93, VY: -0.86, TimeStep: 0.01}},
			{Name: "d", Mass: 2.1, State: orbit.State{X: 0.5, Y: 1.25, VX: 0.1, VY: -0.2, TimeStep: 0.02}},
			{Name: "e", Mass: 0.4, State: orbit.State{X: -1.5, Y: -0.75, VX: 0.3, VY: 0, TimeStep: 0.005}},
		}
	}

	serial := mk()
	parallel := mk()
	serialStore := rangestore.New()
	parallelStore := rangestore.New()

	si := NewIntegrator(orbit.NewGravity(), 0, len(serial))
	pi := NewIntegrator(orbit.NewGravity(), 4, len(parallel))

	for i := 0; i < 50; i++ {
		if err := si.Advance(serial, serialStore); err != nil {
			t.Fatalf("serial advance %d failed: %v", i, err)
		}
		if err := pi.Advance(parallel, parallelStore); err != nil {
			t.Fatalf("parallel advance %d failed: %v", i, err)
		}
	}

	for i := range serial {
		if serial[i].State != parallel[i].State {
			t.Errorf("agent %s diverged:\nserial   %+v\nparallel %+v",
				serial[i].Name, serial[i].State, parallel[i].State)
		}
	}
}
