package astro

import (
	"errors"
	"fmt"
)

// ErrComputation is matched by every ComputationError through errors.Is.
var ErrComputation = errors.New("computation failed")

// ComputationError reports that an astronomical computation could not
// produce a value: an ephemeris series failed to converge, or a
// precondition such as a positive synodic month did not hold.
type ComputationError struct {
	Op  string // operation that failed, e.g. "phase fraction"
	Err error  // underlying cause
}

// NewComputationError wraps err as a ComputationError for op.
func NewComputationError(op string, err error) *ComputationError {
	return &ComputationError{Op: op, Err: err}
}

func (e *ComputationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, ErrComputation)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrComputation) true for any ComputationError.
func (e *ComputationError) Is(target error) bool {
	return target == ErrComputation
}
