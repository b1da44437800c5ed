package engine

import (
	"fmt"
	"log/slog"
)

type options struct {
	maxSteps int
	logger   *slog.Logger
}

func defaultOptions() options {
	return options{maxSteps: DefaultMaxSteps, logger: slog.Default()}
}

// Option configures a Local driver or an offload Channel.
type Option func(*options) error

// WithMaxSteps sets the batch budget per Init.
//
// Default: DefaultMaxSteps. Use a small value in tests to exercise
// quota enforcement. 0 disables the budget.
func WithMaxSteps(maxSteps int) Option {
	return func(o *options) error {
		if maxSteps < 0 {
			return fmt.Errorf("max steps must not be negative, got %d", maxSteps)
		}
		o.maxSteps = maxSteps
		return nil
	}
}

// WithLogger sets the logger for lifecycle and request messages.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

func applyOptions(opts []Option) (options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return options{}, err
		}
	}
	return o, nil
}
