package refit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/refitlabs/refit/internal/adapters/file"
	"github.com/refitlabs/refit/internal/adapters/process"
	"github.com/refitlabs/refit/internal/logging"
	"github.com/refitlabs/refit/pkg/domain"
	"github.com/refitlabs/refit/pkg/pipeline"
	"github.com/refitlabs/refit/pkg/ports"
	"github.com/refitlabs/refit/pkg/runs"
)

// Pipeline is the high-level entry point for embedding refit. It wraps the
// run manager and the phase controller behind one API so hosts do not have
// to wire stores and executors themselves.
type Pipeline struct {
	manager    *runs.Manager
	controller *pipeline.Controller

	runStore  ports.RunStore
	states    ports.StateStore
	artifacts ports.ArtifactStore
	executor  ports.PhaseExecutor
	policy    pipeline.Policy
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Pipeline.
type Option func(*Pipeline)

// WithLogger injects a custom logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithExecutor injects a custom phase executor. Defaults to the subprocess
// runner configured from phases.yaml in the working directory.
func WithExecutor(executor ports.PhaseExecutor) Option {
	return func(p *Pipeline) {
		p.executor = executor
	}
}

// WithPolicy sets the precedence validation policy. Defaults to strict.
func WithPolicy(policy pipeline.Policy) Option {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

// WithLifecycleHooks registers observability hooks fired on every persisted
// phase transition.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Pipeline) {
		p.hooks = hooks
	}
}

// WithStores swaps the storage backend. All three interfaces are usually one
// value; the file, memory and redis adapters each implement the full set.
func WithStores(runStore ports.RunStore, states ports.StateStore, artifacts ports.ArtifactStore) Option {
	return func(p *Pipeline) {
		p.runStore = runStore
		p.states = states
		p.artifacts = artifacts
	}
}

// New creates a Pipeline persisting runs under basePath. An empty basePath
// selects the default .refit/runs directory.
func New(basePath string, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		policy: pipeline.PolicyStrict,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.runStore == nil {
		store := file.New(basePath)
		p.runStore, p.states, p.artifacts = store, store, store
	}
	if p.executor == nil {
		registry, err := process.LoadRegistry("phases.yaml")
		if err != nil {
			return nil, err
		}
		p.executor = process.NewRunner(
			process.WithRegistry(registry),
			process.WithLogger(p.logger),
		)
	}

	p.manager = runs.NewManager(p.runStore, p.states, runs.WithLogger(p.logger))
	p.controller = pipeline.NewController(p.states, p.artifacts, p.executor,
		pipeline.WithLogger(p.logger),
		pipeline.WithPolicy(p.policy),
		pipeline.WithHooks(p.hooks),
	)
	return p, nil
}

// Start creates a fresh run and executes phase one up to its approval gate.
func (p *Pipeline) Start(ctx context.Context) (string, *domain.Artifact, error) {
	runID, _, err := p.manager.Create(ctx)
	if err != nil {
		return "", nil, err
	}
	_, artifact, err := p.controller.StartPhase(ctx, runID, 1)
	return runID, artifact, err
}

// StartPhase executes one explicit phase of an existing run.
func (p *Pipeline) StartPhase(ctx context.Context, runID string, phase int) (*domain.Artifact, error) {
	_, artifact, err := p.controller.StartPhase(ctx, runID, phase)
	return artifact, err
}

// Approve accepts the phase currently parked at the run's approval gate.
func (p *Pipeline) Approve(ctx context.Context, runID, feedback string) (*domain.StateRecord, error) {
	gate, err := p.gate(ctx, runID)
	if err != nil {
		return nil, err
	}
	return p.controller.ApprovePhase(ctx, runID, gate, feedback)
}

// Revise sends the gated phase back to the executor with feedback. The
// superseding artifact parks at the same gate.
func (p *Pipeline) Revise(ctx context.Context, runID, feedback string) (*domain.Artifact, error) {
	gate, err := p.gate(ctx, runID)
	if err != nil {
		return nil, err
	}
	_, artifact, err := p.controller.RequestRevision(ctx, runID, gate, feedback)
	return artifact, err
}

// Quick creates a run, executes phase one, approves it and skips the rest.
func (p *Pipeline) Quick(ctx context.Context) (string, *domain.Artifact, error) {
	runID, artifact, err := p.Start(ctx)
	if err != nil {
		return runID, nil, err
	}
	if _, err := p.controller.ApprovePhase(ctx, runID, 1, "quick mode"); err != nil {
		return runID, nil, err
	}
	if _, err := p.controller.SkipRemaining(ctx, runID, 1); err != nil {
		return runID, nil, err
	}
	return runID, artifact, nil
}

// Record reads a run's state record without mutating anything.
func (p *Pipeline) Record(ctx context.Context, runID string) (*domain.StateRecord, error) {
	return p.controller.Record(ctx, runID)
}

// Resolve maps a run selector ("latest", empty, or an explicit ID) to a run ID.
func (p *Pipeline) Resolve(ctx context.Context, selector string) (string, error) {
	return p.manager.Resolve(ctx, selector)
}

// Runs lists all run IDs in ascending creation order.
func (p *Pipeline) Runs(ctx context.Context) ([]string, error) {
	return p.manager.List(ctx)
}

// Remove deletes a run and everything it owns.
func (p *Pipeline) Remove(ctx context.Context, runID string) error {
	return p.manager.Remove(ctx, runID)
}

// Artifact loads the stored artifact of one phase.
func (p *Pipeline) Artifact(ctx context.Context, runID string, phase int) (*domain.Artifact, error) {
	return p.artifacts.Load(ctx, runID, phase)
}

func (p *Pipeline) gate(ctx context.Context, runID string) (int, error) {
	rec, err := p.controller.Record(ctx, runID)
	if err != nil {
		return 0, err
	}
	active := rec.ActivePhase()
	if active == 0 || rec.Status(active) != domain.StatusAwaitingApproval {
		return 0, fmt.Errorf("run %s has no phase awaiting approval: %w", runID, domain.ErrInvalidTransition)
	}
	return active, nil
}
