package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/lockstep/internal/ir"
)

// DefaultMaxSteps is the default batch budget per Init. It is far above
// what any engine needs for the largest supported dataset, so it only trips
// on an engine that never finishes.
const DefaultMaxSteps = 1_000_000

// QuotaEnforcer counts batches taken since Init and enforces a limit.
//
// Batches taken after every engine is done do not count; they only repeat
// terminal results.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates a quota enforcer with the given limit.
// A limit <= 0 disables enforcement.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check increments the counter and returns StepsExceededError past the limit.
// pending names the algorithms that are still running.
func (q *QuotaEnforcer) Check(pending []ir.AlgorithmID) error {
	q.current++
	if q.maxSteps > 0 && q.current > q.maxSteps {
		return &StepsExceededError{
			Steps:   q.current,
			Limit:   q.maxSteps,
			Pending: pending,
		}
	}
	return nil
}

// StepsExceededError is returned when engines are still running after the
// step budget.
type StepsExceededError struct {
	Steps   int              // Number of batches requested
	Limit   int              // Maximum allowed batches
	Pending []ir.AlgorithmID // Algorithms not yet done
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("exceeded max steps quota: %d steps > %d limit (pending %v)",
		e.Steps, e.Limit, e.Pending)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
