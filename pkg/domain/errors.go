package domain

import "errors"

// ErrRunNotFound is returned when a run selector cannot be resolved to an existing run.
var ErrRunNotFound = errors.New("run not found")

// ErrMissingState is returned when a run has no persisted state record.
var ErrMissingState = errors.New("state record not found")

// ErrCorruptState is returned when a persisted state record cannot be parsed.
// The store never attempts repair; the raw file is left untouched for inspection.
var ErrCorruptState = errors.New("state record corrupt")

// ErrMissingArtifact is returned when a phase has not produced output yet.
var ErrMissingArtifact = errors.New("artifact not found")

// ErrPrecedenceViolation is returned when a phase is started out of allowed order.
var ErrPrecedenceViolation = errors.New("phase precedence violated")

// ErrInvalidTransition is returned when a decision is applied to a phase that is
// not in the status the decision expects.
var ErrInvalidTransition = errors.New("invalid phase transition")

// ErrPhaseExecution is returned when the phase executor reports a failure.
// Unlike the other errors it leaves a visible mark: the phase is recorded failed.
var ErrPhaseExecution = errors.New("phase execution failed")
