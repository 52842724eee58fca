package bench

import (
	"errors"
	"fmt"
)

// ErrInvalidPolicy is returned when a [Policy] cannot guarantee termination or
// has inconsistent limits.
var ErrInvalidPolicy = errors.New("bench: invalid policy")

// DefaultIterations is the iteration count of [DefaultPolicy].
const DefaultIterations = 1000

// Policy is the stopping rule of a [Harness].
type Policy struct {
	// MinIterations is the number of samples required before the stability
	// rule is evaluated.
	MinIterations int

	// MaxIterations bounds the samples per operation. Reaching it always
	// completes the operation.
	MaxIterations int

	// Window is the number of most recent samples the stability rule looks at.
	Window int

	// Tolerance is the maximum coefficient of variation (std-dev / mean) of the
	// window. Zero disables the stability rule.
	Tolerance float64
}

// DefaultPolicy collects exactly [DefaultIterations] samples per operation.
func DefaultPolicy() Policy {
	return FixedPolicy(DefaultIterations)
}

// FixedPolicy collects exactly n samples per operation.
func FixedPolicy(n int) Policy {
	return Policy{MinIterations: n, MaxIterations: n}
}

// StablePolicy stops once the last window samples vary by at most tolerance,
// after at least minIter and at most maxIter samples.
func StablePolicy(minIter, maxIter, window int, tolerance float64) Policy {
	return Policy{
		MinIterations: minIter,
		MaxIterations: maxIter,
		Window:        window,
		Tolerance:     tolerance,
	}
}

// Validate checks that p terminates and that its limits are consistent.
func (p Policy) Validate() error {
	switch {
	case p.MaxIterations <= 0:
		return fmt.Errorf("%w: max iterations %d", ErrInvalidPolicy, p.MaxIterations)
	case p.MinIterations <= 0 || p.MinIterations > p.MaxIterations:
		return fmt.Errorf("%w: min iterations %d (max %d)", ErrInvalidPolicy, p.MinIterations, p.MaxIterations)
	case p.Tolerance < 0:
		return fmt.Errorf("%w: tolerance %v", ErrInvalidPolicy, p.Tolerance)
	case p.Tolerance > 0 && (p.Window < 2 || p.Window > p.MaxIterations):
		return fmt.Errorf("%w: window %d", ErrInvalidPolicy, p.Window)
	}
	return nil
}

// Stable reports whether p uses the stability rule.
func (p Policy) Stable() bool {
	return p.Tolerance > 0
}
