package loop

import "errors"

// #region errors

// Sentinel errors for the terminal failure taxonomy. Wrapped with round
// context when surfaced to the caller.
var (
	// ErrEvaluationFailed marks an evaluator that was unreachable or
	// returned invalid data. Never silently defaults to a passing score.
	ErrEvaluationFailed = errors.New("evaluation failed")

	// ErrIncompleteSelection marks an evaluation that returned fewer than
	// the required category selections. Treated the same as ErrEvaluationFailed.
	ErrIncompleteSelection = errors.New("incomplete selection")

	// ErrTimeoutExceeded marks a collaborator call that exceeded its bound
	// even after the single backoff retry.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
)

// #endregion
