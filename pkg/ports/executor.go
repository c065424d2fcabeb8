package ports

import "context"

// ExecuteRequest is the input handed to a phase executor. Prior artifacts are
// keyed by phase index; Feedback carries operator revision notes, empty on a
// first attempt.
type ExecuteRequest struct {
	RunID    string
	Phase    int
	Priors   map[int]string
	Feedback string
}

// ExecuteResult is the consolidated output of one phase execution.
type ExecuteResult struct {
	Content string
	Summary string
}

// PhaseExecutor performs the actual analysis/modification work for one phase.
// The controller treats it as a single opaque synchronous unit: it may
// parallelize internally but returns exactly one consolidated result.
type PhaseExecutor interface {
	Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error)
}
