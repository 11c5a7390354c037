package contact

import (
	"errors"
	"fmt"
)

// Domain errors for contact evaluations.
var (
	// ErrInvalidGeometry indicates a non-positive radius or elastic modulus,
	// or a Poisson ratio outside [0, 0.5).
	ErrInvalidGeometry = errors.New("contact: invalid geometry (non-positive radius or modulus)")

	// ErrInvalidLoad indicates that not exactly one of normal force and
	// penetration was given as a positive value.
	ErrInvalidLoad = errors.New("contact: exactly one of normal force or penetration must be positive")

	// ErrConvergence indicates the normal force equilibrium search ran out of iterations.
	ErrConvergence = errors.New("contact: normal force equilibrium did not converge")

	// ErrDegenerateGeometry indicates a zero or negative effective contact dimension.
	ErrDegenerateGeometry = errors.New("contact: degenerate contact dimension")

	// ErrInvalidResolution indicates a non-positive point or strip count.
	ErrInvalidResolution = errors.New("contact: discretization count must be positive")

	// ErrInvalidParameter indicates a solver parameter outside its valid range.
	ErrInvalidParameter = errors.New("contact: parameter out of valid bounds")
)

// ConvergenceError reports how far the equilibrium search got before giving up.
type ConvergenceError struct {
	Iterations int
	Target     float64
	Residual   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%v after %d iterations (target %.6g N, relative residual %.3e)",
		ErrConvergence, e.Iterations, e.Target, e.Residual)
}

func (e *ConvergenceError) Unwrap() error {
	return ErrConvergence
}

// SolveError wraps an error with the solver stage it came from.
type SolveError struct {
	Stage   string
	Wrapped error
}

func (e *SolveError) Error() string {
	return e.Stage + ": " + e.Wrapped.Error()
}

func (e *SolveError) Unwrap() error {
	return e.Wrapped
}
