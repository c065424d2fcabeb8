package runs

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

// SelectorLatest is the run selector resolving to the most recently created run.
const SelectorLatest = "latest"

// idFormat yields identifiers that sort lexicographically by creation time.
const idFormat = "20060102T150405.000000000"

// Manager creates new runs and resolves existing ones. Creation order is the
// only notion of identity; "latest" is a pure function of creation timestamps,
// independent of run status.
type Manager struct {
	store  ports.RunStore
	states ports.StateStore
	clock  func() time.Time
	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager creates a new run manager over the given stores.
func NewManager(store ports.RunStore, states ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		states: states,
		clock:  func() time.Time { return time.Now().UTC() },
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create allocates a new run: timestamp identifier, empty state record with
// all phases pending, persisted before the ID is returned.
func (m *Manager) Create(ctx context.Context) (string, *domain.StateRecord, error) {
	now := m.clock()
	runID := now.Format(idFormat)

	if err := m.store.Init(ctx, runID); err != nil {
		return "", nil, fmt.Errorf("failed to initialize run: %w", err)
	}

	rec := domain.NewStateRecord(runID, now)
	if err := m.states.Write(ctx, runID, rec); err != nil {
		return "", nil, fmt.Errorf("failed to persist initial state record: %w", err)
	}

	m.logger.Info("run created", "run_id", runID)
	return runID, rec, nil
}

// Resolve maps a selector (an explicit ID, or "latest"/empty) to a run ID.
// Returns domain.ErrRunNotFound for an unknown ID or when no runs exist.
func (m *Manager) Resolve(ctx context.Context, selector string) (string, error) {
	if selector == "" || selector == SelectorLatest {
		return m.store.Latest(ctx)
	}

	ok, err := m.store.Exists(ctx, selector)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("run %s: %w", selector, domain.ErrRunNotFound)
	}
	return selector, nil
}

// ResolveOrCreate resolves "latest", creating a fresh run when none exists.
// Used by explicit-phase invocations.
func (m *Manager) ResolveOrCreate(ctx context.Context) (string, error) {
	runID, err := m.store.Latest(ctx)
	if err == nil {
		return runID, nil
	}
	if !errors.Is(err, domain.ErrRunNotFound) {
		return "", err
	}
	runID, _, err = m.Create(ctx)
	return runID, err
}

// List returns all run IDs in ascending creation order.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Remove deletes a run and everything it owns.
func (m *Manager) Remove(ctx context.Context, runID string) error {
	return m.store.Remove(ctx, runID)
}
