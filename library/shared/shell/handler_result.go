package shell

import "time"

// HandlerResult describes how a command handler execution went, independent of its output.
type HandlerResult struct {
	// Idempotent is true when the requested state already held and nothing was written.
	Idempotent bool

	// RetryAttempts is the number of attempts made (1 without retries).
	RetryAttempts int

	// TotalRetryDelay is the time spent waiting between attempts.
	TotalRetryDelay time.Duration

	// LastErrorType is the error class of the final attempt, "none" on success.
	LastErrorType string

	// RetriesExhausted is true when every attempt failed with a retryable error.
	RetriesExhausted bool
}

func newHandlerResult(retryMetrics RetryMetrics, idempotent bool) HandlerResult {
	return HandlerResult{
		Idempotent:       idempotent,
		RetryAttempts:    retryMetrics.Attempts,
		TotalRetryDelay:  retryMetrics.TotalDelay,
		LastErrorType:    retryMetrics.LastErrorType,
		RetriesExhausted: retryMetrics.RetriesExhausted,
	}
}

// NewSuccessResult creates a HandlerResult for a command that changed state.
func NewSuccessResult(retryMetrics RetryMetrics) HandlerResult {
	return newHandlerResult(retryMetrics, false)
}

// NewIdempotentResult creates a HandlerResult for a command that found nothing to change.
func NewIdempotentResult(retryMetrics RetryMetrics) HandlerResult {
	return newHandlerResult(retryMetrics, true)
}

// NewErrorResult creates a HandlerResult for a failed command.
func NewErrorResult(retryMetrics RetryMetrics) HandlerResult {
	return newHandlerResult(retryMetrics, false)
}
