package retry

import (
	"time"
)

// RetryParam holds the parameters for retry logic.
// These parameters are passed from outside (e.g., config) and should not
// be known by the retry handler internally.
//
// Delay is a constant inter-attempt wait. The constant delay is a
// deliberate simplicity choice: retried tasks are idempotent and carry no
// state between attempts, so an implementation is free to swap in an
// exponential schedule without changing this contract.
type RetryParam struct {
	Delay       time.Duration
	MaxAttempts int
}

// NewRetryParam creates a new RetryParam with the given settings.
// maxAttempts counts the first attempt: retries+1 for a budget of `retries`.
func NewRetryParam(
	delay time.Duration,
	maxAttempts int,
) RetryParam {
	return RetryParam{
		Delay:       delay,
		MaxAttempts: maxAttempts,
	}
}
