package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/refitlabs/refit/internal/logging"
	"github.com/refitlabs/refit/pkg/domain"
	"github.com/refitlabs/refit/pkg/ports"
)

// Policy controls whether an explicit phase start re-validates that all
// preceding phases are recorded approved or skipped.
type Policy string

const (
	// PolicyStrict enforces the precedence check on every start.
	PolicyStrict Policy = "strict"
	// PolicyTrust skips the precedence check, trusting the caller's claim
	// that prior phases are complete. The one-active-phase invariant still
	// holds in this mode.
	PolicyTrust Policy = "trust"
)

// Controller is the phase state machine. All mutating operations follow the
// same discipline: read the record, validate the transition (no state change
// on violation), mutate, persist, then return at the checkpoint boundary.
type Controller struct {
	states    ports.StateStore
	artifacts ports.ArtifactStore
	executor  ports.PhaseExecutor
	policy    Policy
	hooks     domain.LifecycleHooks
	clock     func() time.Time
	logger    *slog.Logger
}

// Option configures the Controller.
type Option func(*Controller)

// WithLogger configures a logger for the Controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithPolicy sets the precedence validation policy.
func WithPolicy(policy Policy) Option {
	return func(c *Controller) {
		c.policy = policy
	}
}

// WithHooks registers lifecycle callbacks fired after each persisted transition.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// NewController creates a controller over the given stores and executor.
func NewController(states ports.StateStore, artifacts ports.ArtifactStore, executor ports.PhaseExecutor, opts ...Option) *Controller {
	c := &Controller{
		states:    states,
		artifacts: artifacts,
		executor:  executor,
		policy:    PolicyStrict,
		clock:     func() time.Time { return time.Now().UTC() },
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Record reads the run's state record. It is a pure read: calling it any
// number of times without an intervening decision yields identical results,
// which is what makes resume idempotent.
func (c *Controller) Record(ctx context.Context, runID string) (*domain.StateRecord, error) {
	return c.states.Read(ctx, runID)
}

// StartPhase validates preconditions, marks the phase running, invokes the
// executor and persists the outcome. On executor success the phase parks at
// awaiting-approval and both the updated record and the saved artifact are
// returned; on executor failure the phase is recorded failed and the error
// wraps domain.ErrPhaseExecution.
func (c *Controller) StartPhase(ctx context.Context, runID string, phase int) (*domain.StateRecord, *domain.Artifact, error) {
	if !domain.ValidPhase(phase) {
		return nil, nil, fmt.Errorf("phase index %d out of range", phase)
	}

	rec, err := c.states.Read(ctx, runID)
	if err != nil {
		return nil, nil, err
	}

	if rec.Succeeded() {
		return nil, nil, fmt.Errorf("run %s is complete: %w", runID, domain.ErrInvalidTransition)
	}

	switch status := rec.Status(phase); status {
	case domain.StatusPending, domain.StatusFailed:
		// Fresh attempt, or an explicit restart of a failed phase.
	case domain.StatusRunning:
		// A phase persisted as running with no live executor means the
		// process died mid-execution. An explicit start is the recovery
		// path: re-run it from scratch.
	default:
		return nil, nil, fmt.Errorf("run %s phase %d is %s: %w", runID, phase, status, domain.ErrInvalidTransition)
	}

	// One active phase per run, regardless of policy. The phase being
	// restarted is exempt from its own check.
	if active := rec.ActivePhase(); active != 0 && active != phase {
		return nil, nil, fmt.Errorf("run %s phase %d is %s: %w", runID, active, rec.Status(active), domain.ErrInvalidTransition)
	}

	if c.policy == PolicyStrict && phase > 1 {
		if prev := rec.Status(phase - 1); prev != domain.StatusApproved && prev != domain.StatusSkipped {
			return nil, nil, fmt.Errorf("run %s phase %d requires phase %d approved or skipped, found %s: %w",
				runID, phase, phase-1, prev, domain.ErrPrecedenceViolation)
		}
	}

	// Gather prior artifacts before any state change so a storage failure
	// here leaves the record untouched.
	priors, err := c.priorArtifacts(ctx, runID, phase)
	if err != nil {
		return nil, nil, err
	}

	// A restart invalidates everything downstream of the restarted phase.
	for j := phase + 1; j <= domain.PhaseCount; j++ {
		if rec.Status(j) != domain.StatusPending {
			ps := rec.Phase(j)
			ps.Status = domain.StatusPending
			ps.StartedAt = nil
			ps.EndedAt = nil
		}
	}

	if err := c.transition(ctx, runID, rec, phase, domain.StatusRunning); err != nil {
		return nil, nil, err
	}

	return c.execute(ctx, runID, rec, phase, priors, "")
}

// ApprovePhase applies an approval decision to a phase parked at the gate.
func (c *Controller) ApprovePhase(ctx context.Context, runID string, phase int, feedback string) (*domain.StateRecord, error) {
	if !domain.ValidPhase(phase) {
		return nil, fmt.Errorf("phase index %d out of range", phase)
	}

	rec, err := c.states.Read(ctx, runID)
	if err != nil {
		return nil, err
	}

	if status := rec.Status(phase); status != domain.StatusAwaitingApproval {
		return nil, fmt.Errorf("run %s phase %d is %s, not awaiting-approval: %w",
			runID, phase, status, domain.ErrInvalidTransition)
	}

	rec.Decide(phase, domain.DecisionApprove, c.clock(), feedback)
	if err := c.transition(ctx, runID, rec, phase, domain.StatusApproved); err != nil {
		return nil, err
	}

	if phase == domain.PhaseCount {
		c.logger.Info("run complete", "run_id", runID)
	}
	return rec, nil
}

// RequestRevision sends a phase back to the executor with operator feedback.
// The superseding artifact re-parks the phase at awaiting-approval.
func (c *Controller) RequestRevision(ctx context.Context, runID string, phase int, feedback string) (*domain.StateRecord, *domain.Artifact, error) {
	if !domain.ValidPhase(phase) {
		return nil, nil, fmt.Errorf("phase index %d out of range", phase)
	}

	rec, err := c.states.Read(ctx, runID)
	if err != nil {
		return nil, nil, err
	}

	if status := rec.Status(phase); status != domain.StatusAwaitingApproval {
		return nil, nil, fmt.Errorf("run %s phase %d is %s, not awaiting-approval: %w",
			runID, phase, status, domain.ErrInvalidTransition)
	}

	priors, err := c.priorArtifacts(ctx, runID, phase)
	if err != nil {
		return nil, nil, err
	}

	rec.Decide(phase, domain.DecisionRevise, c.clock(), feedback)
	if err := c.transition(ctx, runID, rec, phase, domain.StatusRunning); err != nil {
		return nil, nil, err
	}

	return c.execute(ctx, runID, rec, phase, priors, feedback)
}

// SkipRemaining marks every phase after the given one skipped. Only pending
// phases may be skipped; anything else rejects the whole operation without a
// state change.
func (c *Controller) SkipRemaining(ctx context.Context, runID string, after int) (*domain.StateRecord, error) {
	rec, err := c.states.Read(ctx, runID)
	if err != nil {
		return nil, err
	}

	for j := after + 1; j <= domain.PhaseCount; j++ {
		if status := rec.Status(j); status != domain.StatusPending {
			return nil, fmt.Errorf("run %s phase %d is %s, not pending: %w",
				runID, j, status, domain.ErrInvalidTransition)
		}
	}

	now := c.clock()
	var events []*domain.TransitionEvent
	for j := after + 1; j <= domain.PhaseCount; j++ {
		ps := rec.Phase(j)
		events = append(events, &domain.TransitionEvent{
			Timestamp: now, RunID: runID, Phase: j, From: ps.Status, To: domain.StatusSkipped,
		})
		ps.Status = domain.StatusSkipped
		rec.Decide(j, domain.DecisionSkip, now, "")
	}

	if err := c.states.Write(ctx, runID, rec); err != nil {
		return nil, err
	}
	for _, ev := range events {
		c.hooks.Fire(ctx, ev)
	}
	c.logger.Info("phases skipped", "run_id", runID, "after", after)
	return rec, nil
}

// transition applies a single phase status change, stamps timestamps, updates
// the cursor, persists and fires the hook.
func (c *Controller) transition(ctx context.Context, runID string, rec *domain.StateRecord, phase int, to domain.PhaseStatus) error {
	now := c.clock()
	ps := rec.Phase(phase)
	from := ps.Status

	switch to {
	case domain.StatusRunning:
		ps.StartedAt = &now
		ps.EndedAt = nil
		rec.CurrentPhase = phase
	case domain.StatusApproved, domain.StatusFailed:
		ps.EndedAt = &now
	}
	ps.Status = to

	if err := c.states.Write(ctx, runID, rec); err != nil {
		return fmt.Errorf("failed to persist state record: %w", err)
	}

	c.hooks.Fire(ctx, &domain.TransitionEvent{
		Timestamp: now, RunID: runID, Phase: phase, From: from, To: to,
	})
	c.logger.Debug("phase transition",
		"run_id", runID, "phase", phase, "name", domain.PhaseName(phase), "from", from, "to", to)
	return nil
}

// execute invokes the phase executor and persists either the artifact plus
// awaiting-approval, or the failed status.
func (c *Controller) execute(ctx context.Context, runID string, rec *domain.StateRecord, phase int, priors map[int]string, feedback string) (*domain.StateRecord, *domain.Artifact, error) {
	result, err := c.executor.Execute(ctx, ports.ExecuteRequest{
		RunID:    runID,
		Phase:    phase,
		Priors:   priors,
		Feedback: feedback,
	})
	if err != nil {
		if terr := c.transition(ctx, runID, rec, phase, domain.StatusFailed); terr != nil {
			return nil, nil, terr
		}
		return nil, nil, fmt.Errorf("run %s phase %d (%s): %w: %v",
			runID, phase, domain.PhaseName(phase), domain.ErrPhaseExecution, err)
	}

	artifact, err := c.artifacts.Save(ctx, runID, phase, result.Content, result.Summary)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to save artifact: %w", err)
	}

	if err := c.transition(ctx, runID, rec, phase, domain.StatusAwaitingApproval); err != nil {
		return nil, nil, err
	}
	return rec, artifact, nil
}

// priorArtifacts loads the content of every artifact before the given phase.
// Phases that never produced output (skipped, pending) are simply absent.
func (c *Controller) priorArtifacts(ctx context.Context, runID string, phase int) (map[int]string, error) {
	priors := make(map[int]string)
	for j := 1; j < phase; j++ {
		artifact, err := c.artifacts.Load(ctx, runID, j)
		if err != nil {
			if errors.Is(err, domain.ErrMissingArtifact) {
				continue
			}
			return nil, err
		}
		priors[j] = artifact.Content
	}
	return priors, nil
}
