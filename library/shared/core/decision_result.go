package core

// DecisionResult is the outcome of a Decide function.
// Construct it with IdempotentDecision, SuccessDecision or ErrorDecision.
type DecisionResult struct {
	Outcome string // "idempotent", "success" or "error"
	Err     error
}

const (
	idempotentOutcome = "idempotent"
	successOutcome    = "success"
	errorOutcome      = "error"
)

// IdempotentDecision reports that the requested state already holds and nothing has to change.
func IdempotentDecision() DecisionResult {
	return DecisionResult{Outcome: idempotentOutcome}
}

// SuccessDecision reports that the state change may be applied.
func SuccessDecision() DecisionResult {
	return DecisionResult{Outcome: successOutcome}
}

// ErrorDecision reports a violated business rule.
func ErrorDecision(err error) DecisionResult {
	return DecisionResult{Outcome: errorOutcome, Err: err}
}

// IsIdempotent reports whether nothing has to change.
func (r DecisionResult) IsIdempotent() bool {
	return r.Outcome == idempotentOutcome
}

// HasError returns the error if there is one, otherwise nil.
func (r DecisionResult) HasError() error {
	if r.Outcome == errorOutcome {
		return r.Err
	}

	return nil
}
