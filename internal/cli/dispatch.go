package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/refitlabs/refit/internal/metrics"
	"github.com/refitlabs/refit/internal/presentation/graph"
	"github.com/refitlabs/refit/pkg/domain"
)

// RunFull starts a fresh run and executes phase one up to the approval gate.
// The process then returns cleanly; the operator decides via approve/revise.
func (a *App) RunFull(ctx context.Context) error {
	runID, _, err := a.manager.Create(ctx)
	if err != nil {
		return err
	}
	metrics.RunCreated()

	return a.withRunLock(ctx, runID, func(ctx context.Context) error {
		rec, artifact, err := a.control.StartPhase(ctx, runID, 1)
		if err != nil {
			return err
		}
		return a.emitCheckpoint(rec, artifact)
	})
}

// RunPhase executes one explicit phase against the selected run, creating a
// fresh run when none exists yet.
func (a *App) RunPhase(ctx context.Context, selector string, phase int) error {
	runID, err := a.resolveOrCreate(ctx, selector)
	if err != nil {
		return err
	}

	return a.withRunLock(ctx, runID, func(ctx context.Context) error {
		rec, artifact, err := a.control.StartPhase(ctx, runID, phase)
		if err != nil {
			return err
		}
		return a.emitCheckpoint(rec, artifact)
	})
}

// Resume re-reads the selected run and continues it. A phase parked at the
// gate is re-presented unchanged, so resuming twice is indistinguishable from
// resuming once. A failed phase, or one left running by a process that died
// mid-execution, is only restarted when rerun is set; the next pending phase
// starts automatically when its predecessor is settled.
func (a *App) Resume(ctx context.Context, selector string, rerun bool) error {
	runID, err := a.manager.Resolve(ctx, selector)
	if err != nil {
		return err
	}

	return a.withRunLock(ctx, runID, func(ctx context.Context) error {
		rec, err := a.control.Record(ctx, runID)
		if err != nil {
			return err
		}

		if gate := awaitingPhase(rec); gate != 0 {
			artifact, err := a.artifacts.Load(ctx, runID, gate)
			if err != nil && !errors.Is(err, domain.ErrMissingArtifact) {
				return err
			}
			return a.emitCheckpoint(rec, artifact)
		}

		// Still active but not at the gate: the phase was persisted as
		// running and the process died before it settled.
		if stuck := rec.ActivePhase(); stuck != 0 {
			if !rerun {
				return a.emitCheckpoint(rec, nil)
			}
			rec, artifact, err := a.control.StartPhase(ctx, runID, stuck)
			if err != nil {
				return err
			}
			return a.emitCheckpoint(rec, artifact)
		}

		if rec.Failed() {
			if !rerun {
				return a.emitCheckpoint(rec, nil)
			}
			rec, artifact, err := a.control.StartPhase(ctx, runID, rec.CurrentPhase)
			if err != nil {
				return err
			}
			return a.emitCheckpoint(rec, artifact)
		}

		if rec.Succeeded() {
			return a.emitCheckpoint(rec, nil)
		}

		next := nextPending(rec)
		if next == 0 {
			return a.emitCheckpoint(rec, nil)
		}
		rec, artifact, err := a.control.StartPhase(ctx, runID, next)
		if err != nil {
			return err
		}
		return a.emitCheckpoint(rec, artifact)
	})
}

// RunQuick starts a fresh run, executes phase one, approves it on the spot
// and skips everything downstream. One artifact, no gates, terminal run.
func (a *App) RunQuick(ctx context.Context) error {
	runID, _, err := a.manager.Create(ctx)
	if err != nil {
		return err
	}
	metrics.RunCreated()

	return a.withRunLock(ctx, runID, func(ctx context.Context) error {
		_, artifact, err := a.control.StartPhase(ctx, runID, 1)
		if err != nil {
			return err
		}
		if _, err := a.control.ApprovePhase(ctx, runID, 1, "quick mode"); err != nil {
			return err
		}
		rec, err := a.control.SkipRemaining(ctx, runID, 1)
		if err != nil {
			return err
		}
		return a.emitCheckpoint(rec, artifact)
	})
}

// Approve accepts the phase parked at the gate. Unless advance is disabled,
// the next phase starts immediately and parks at its own gate.
func (a *App) Approve(ctx context.Context, selector, feedback string, advance bool) error {
	runID, err := a.manager.Resolve(ctx, selector)
	if err != nil {
		return err
	}

	return a.withRunLock(ctx, runID, func(ctx context.Context) error {
		rec, err := a.control.Record(ctx, runID)
		if err != nil {
			return err
		}
		gate := awaitingPhase(rec)
		if gate == 0 {
			return fmt.Errorf("run %s has no phase awaiting approval: %w", runID, domain.ErrInvalidTransition)
		}

		rec, err = a.control.ApprovePhase(ctx, runID, gate, feedback)
		if err != nil {
			return err
		}

		if !advance || gate == domain.PhaseCount {
			return a.emitCheckpoint(rec, nil)
		}
		rec, artifact, err := a.control.StartPhase(ctx, runID, gate+1)
		if err != nil {
			return err
		}
		return a.emitCheckpoint(rec, artifact)
	})
}

// Revise sends the gated phase back to its executor with operator feedback
// and re-presents the superseding output at the same gate.
func (a *App) Revise(ctx context.Context, selector, feedback string) error {
	runID, err := a.manager.Resolve(ctx, selector)
	if err != nil {
		return err
	}

	return a.withRunLock(ctx, runID, func(ctx context.Context) error {
		rec, err := a.control.Record(ctx, runID)
		if err != nil {
			return err
		}
		gate := awaitingPhase(rec)
		if gate == 0 {
			return fmt.Errorf("run %s has no phase awaiting approval: %w", runID, domain.ErrInvalidTransition)
		}

		rec, artifact, err := a.control.RequestRevision(ctx, runID, gate, feedback)
		if err != nil {
			return err
		}
		return a.emitCheckpoint(rec, artifact)
	})
}

// ListRuns prints every run with its current status, oldest first.
func (a *App) ListRuns(ctx context.Context) error {
	ids, err := a.manager.List(ctx)
	if err != nil {
		return err
	}

	if a.jsonOut {
		return a.emitJSON(map[string]any{"runs": ids})
	}
	for _, id := range ids {
		rec, err := a.control.Record(ctx, id)
		if err != nil {
			fmt.Fprintf(a.stdout, "%s\t(unreadable: %v)\n", id, err)
			continue
		}
		fmt.Fprintf(a.stdout, "%s\t%s\n", id, describeRun(rec))
	}
	return nil
}

// InspectRun prints the full state record of the selected run, decision log
// included. With asGraph the record renders as a Mermaid flowchart instead.
func (a *App) InspectRun(ctx context.Context, selector string, asGraph bool) error {
	runID, err := a.manager.Resolve(ctx, selector)
	if err != nil {
		return err
	}
	rec, err := a.control.Record(ctx, runID)
	if err != nil {
		return err
	}

	if asGraph {
		fmt.Fprint(a.stdout, graph.GenerateMermaid(rec))
		return nil
	}
	if a.jsonOut {
		return a.emitJSON(rec)
	}
	a.printRecord(rec)
	return nil
}

// RemoveRuns deletes the given runs, or every run when all is set.
func (a *App) RemoveRuns(ctx context.Context, selectors []string, all bool) error {
	if all {
		ids, err := a.manager.List(ctx)
		if err != nil {
			return err
		}
		selectors = ids
	}

	for _, selector := range selectors {
		runID, err := a.manager.Resolve(ctx, selector)
		if err != nil {
			return err
		}
		if err := a.manager.Remove(ctx, runID); err != nil {
			return err
		}
		a.logger.Info("run removed", "run_id", runID)
	}
	return nil
}

// awaitingPhase returns the phase parked at the approval gate, or zero.
func awaitingPhase(rec *domain.StateRecord) int {
	if active := rec.ActivePhase(); active != 0 && rec.Status(active) == domain.StatusAwaitingApproval {
		return active
	}
	return 0
}

// nextPending returns the first pending phase whose predecessor is settled,
// or zero when nothing can start.
func nextPending(rec *domain.StateRecord) int {
	for i := 1; i <= domain.PhaseCount; i++ {
		if rec.Status(i) != domain.StatusPending {
			continue
		}
		if i == 1 {
			return i
		}
		if prev := rec.Status(i - 1); prev == domain.StatusApproved || prev == domain.StatusSkipped {
			return i
		}
		return 0
	}
	return 0
}

// resolveOrCreate maps a selector to a run ID, creating a fresh run when the
// selector is empty and no run exists yet.
func (a *App) resolveOrCreate(ctx context.Context, selector string) (string, error) {
	if selector != "" {
		return a.manager.Resolve(ctx, selector)
	}
	runID, err := a.manager.ResolveOrCreate(ctx)
	if err == nil {
		return runID, nil
	}
	return "", err
}

// withRunLock serializes a mutating operation on one run when a distributed
// locker is configured. The file backend runs unlocked: the atomic write plus
// the single-active-phase check covers the common local case.
func (a *App) withRunLock(ctx context.Context, runID string, fn func(context.Context) error) error {
	if a.locker == nil {
		return fn(ctx)
	}
	unlock, err := a.locker.Lock(ctx, runID, lockTTL)
	if err != nil {
		return fmt.Errorf("failed to lock run %s: %w", runID, err)
	}
	defer func() {
		if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil {
			a.logger.Warn("failed to release run lock", "run_id", runID, "err", uerr)
		}
	}()
	return fn(ctx)
}
