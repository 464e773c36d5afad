package orbit

import "fmt"

// ValidationError reports a malformed initial-conditions document or run
// configuration. It is always produced before the first integration step.
type ValidationError struct {
	Agent  string // offending agent name, empty for document-level problems
	Field  string // offending field, empty when the agent as a whole is bad
	Reason string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Agent != "" && e.Field != "":
		return fmt.Sprintf("orbit: agent %q: field %q: %s", e.Agent, e.Field, e.Reason)
	case e.Agent != "":
		return fmt.Sprintf("orbit: agent %q: %s", e.Agent, e.Reason)
	default:
		return fmt.Sprintf("orbit: %s", e.Reason)
	}
}

// NumericalError reports singular or non-finite arithmetic produced while
// advancing the simulation. Partial results written before the failure
// remain valid and queryable.
type NumericalError struct {
	Agent  string
	Other  string // second agent for pairwise singularities, else empty
	Reason string
}

func (e *NumericalError) Error() string {
	switch {
	case e.Other != "":
		return fmt.Sprintf("orbit: agents %q and %q: %s", e.Agent, e.Other, e.Reason)
	case e.Agent != "":
		return fmt.Sprintf("orbit: agent %q: %s", e.Agent, e.Reason)
	default:
		return fmt.Sprintf("orbit: %s", e.Reason)
	}
}
