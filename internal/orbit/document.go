package orbit

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
)

// AgentSpec is the raw per-agent entry of an initial-conditions document.
// Position and velocity are required; time, timeStep and mass are optional
// and take the package defaults. Pointer fields distinguish absent from
// zero.
type AgentSpec struct {
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	VX       *float64 `json:"vx"`
	VY       *float64 `json:"vy"`
	Time     *float64 `json:"time,omitempty"`
	TimeStep *float64 `json:"timeStep,omitempty"`
	Mass     *float64 `json:"mass,omitempty"`
}

// InitialConditions maps agent name to its spec. Every key of the document
// becomes one agent.
type InitialConditions map[string]AgentSpec

// DecodeInitialConditions parses a JSON initial-conditions document.
// Unknown fields and trailing content are rejected so that a malformed
// document fails here rather than surfacing as a half-built agent set.
func DecodeInitialConditions(data []byte) (InitialConditions, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var ic InitialConditions
	if err := dec.Decode(&ic); err != nil {
		return nil, &ValidationError{Reason: "malformed initial conditions: " + err.Error()}
	}
	if dec.More() {
		return nil, &ValidationError{Reason: "trailing content after initial conditions"}
	}
	return ic, nil
}

// Agents materializes the document into validated agents, ordered by name
// so that runs over the same document are deterministic.
func (ic InitialConditions) Agents() ([]Agent, error) {
	if len(ic) == 0 {
		return nil, &ValidationError{Reason: "initial conditions define no agents"}
	}

	names := make([]string, 0, len(ic))
	for name := range ic {
		if name == "" {
			return nil, &ValidationError{Reason: "empty agent name"}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	agents := make([]Agent, 0, len(names))
	for _, name := range names {
		a, err := ic[name].agent(name)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, nil
}

func (spec AgentSpec) agent(name string) (Agent, error) {
	required := []struct {
		field string
		val   *float64
	}{
		{"x", spec.X},
		{"y", spec.Y},
		{"vx", spec.VX},
		{"vy", spec.VY},
	}
	for _, r := range required {
		if r.val == nil {
			return Agent{}, &ValidationError{Agent: name, Field: r.field, Reason: "missing"}
		}
		if !finite(*r.val) {
			return Agent{}, &ValidationError{Agent: name, Field: r.field, Reason: "not a finite number"}
		}
	}

	st := State{
		X:        *spec.X,
		Y:        *spec.Y,
		VX:       *spec.VX,
		VY:       *spec.VY,
		TimeStep: DefaultTimeStep,
	}
	mass := DefaultMass

	if spec.Time != nil {
		if !finite(*spec.Time) {
			return Agent{}, &ValidationError{Agent: name, Field: "time", Reason: "not a finite number"}
		}
		st.Time = *spec.Time
	}
	if spec.TimeStep != nil {
		if !finite(*spec.TimeStep) || *spec.TimeStep <= 0 {
			return Agent{}, &ValidationError{Agent: name, Field: "timeStep", Reason: "must be a positive finite number"}
		}
		st.TimeStep = *spec.TimeStep
	}
	if spec.Mass != nil {
		if !finite(*spec.Mass) || *spec.Mass <= 0 {
			return Agent{}, &ValidationError{Agent: name, Field: "mass", Reason: "must be a positive finite number"}
		}
		mass = *spec.Mass
	}

	return Agent{Name: name, Mass: mass, State: st}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
