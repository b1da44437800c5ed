package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/lockstep/internal/sorts"
)

// RuntimeError is a driver failure that is the caller's to handle: a broken
// contract (unknown algorithm id, step before init) or an offload channel
// that cannot take the request (closed, or a step already in flight).
// Running past the step budget is reported as *StepsExceededError instead.
type RuntimeError struct {
	Code    RuntimeErrorCode
	Message string
	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeContractViolation indicates a caller broke the driver contract.
	ErrCodeContractViolation RuntimeErrorCode = "CONTRACT_VIOLATION"

	// ErrCodeChannelUnavailable indicates the offload channel cannot take a request.
	ErrCodeChannelUnavailable RuntimeErrorCode = "CHANNEL_UNAVAILABLE"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// ErrUnknownAlgorithm is the cause of contract errors for ids with no engine.
var ErrUnknownAlgorithm = sorts.ErrUnknownAlgorithm

var (
	// ErrNotInitialized is returned by Step before a successful Init.
	ErrNotInitialized = &RuntimeError{Code: ErrCodeContractViolation, Message: "driver not initialized"}

	// ErrClosed is returned by every call after Close, and by a Step that was
	// in flight when Close ran.
	ErrClosed = &RuntimeError{Code: ErrCodeChannelUnavailable, Message: "channel closed"}

	// ErrBusy is returned by Step while another step request is in flight.
	// Callers drop the tick.
	ErrBusy = &RuntimeError{Code: ErrCodeChannelUnavailable, Message: "step already in flight"}
)

// newContractError wraps cause as a contract violation.
func newContractError(message string, cause error) *RuntimeError {
	return &RuntimeError{Code: ErrCodeContractViolation, Message: message, Err: cause}
}

// IsContractError returns true if the error is a contract violation.
// Uses errors.As to handle wrapped errors.
func IsContractError(err error) bool {
	return hasCode(err, ErrCodeContractViolation)
}

// IsChannelError returns true if the error means the channel could not take
// the request (closed or busy).
func IsChannelError(err error) bool {
	return hasCode(err, ErrCodeChannelUnavailable)
}

// IsQuotaError reports whether err means the step budget ran out.
func IsQuotaError(err error) bool {
	return IsStepsExceededError(err)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}
