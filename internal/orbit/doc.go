// Package orbit provides the core domain types for gravitational
// trajectory simulation.
//
// The package defines the fixed-shape kinematic state of a simulated
// body, the initial-conditions document that callers submit, and the
// pairwise force model that drives integration:
//
//   - [State]: position, velocity, local time and time step of one agent
//   - [Agent]: a named body with mass and current state
//   - [InitialConditions]: the caller-supplied per-agent document
//   - [Gravity]: Newtonian pairwise inverse-square acceleration
//
// # Error Taxonomy
//
// Construction problems surface as [*ValidationError] before any step
// executes; singular or non-finite arithmetic surfaces as
// [*NumericalError] at the offending iteration. Both are matched with
// errors.As:
//
//	var verr *orbit.ValidationError
//	if errors.As(err, &verr) {
//	    // reject the request, nothing was simulated
//	}
package orbit
