package dynamo

import "errors"

// Domain errors for control and simulation operations.
var (
	// ErrInvalidTimestep indicates a zero, negative or non-finite dt.
	// The derivative term divides by dt, so dt == 0 is a singularity.
	ErrInvalidTimestep = errors.New("dynamo: invalid timestep (dt must be positive and finite)")

	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the closed loop diverged.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParam indicates SetParam was called with an unsupported name.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")

	// ErrImmutableParam indicates a parameter fixed at construction.
	ErrImmutableParam = errors.New("dynamo: parameter is immutable")

	// ErrDimensionMismatch indicates mismatched vector dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")
)

// SimulationError wraps an error with the tick at which it happened.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
