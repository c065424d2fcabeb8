package ports

import (
	"context"

	"github.com/refitlabs/refit/pkg/domain"
)

// StateStore defines the interface for persisting a run's StateRecord.
// This allows for durable execution, enabling "Stop & Resume" workflows
// across process restarts.
type StateStore interface {
	// Write persists the record for a run. The write must be atomic with
	// respect to concurrent readers and process crashes: a reader never
	// observes a partially written record.
	Write(ctx context.Context, runID string, rec *domain.StateRecord) error

	// Read retrieves the record for a run.
	// Returns domain.ErrMissingState if no record exists and
	// domain.ErrCorruptState if the record cannot be parsed. It never
	// attempts silent repair.
	Read(ctx context.Context, runID string) (*domain.StateRecord, error)
}

// ArtifactStore defines the interface for persisting phase output.
type ArtifactStore interface {
	// Save persists content keyed by (run, phase), overwriting any prior
	// artifact for that phase (revision semantics). The returned artifact
	// carries the assigned revision number.
	Save(ctx context.Context, runID string, phase int, content, summary string) (*domain.Artifact, error)

	// Load retrieves the artifact for a phase.
	// Returns domain.ErrMissingArtifact if the phase has not produced output.
	Load(ctx context.Context, runID string, phase int) (*domain.Artifact, error)
}

// RunStore defines the interface for run directory lifecycle.
type RunStore interface {
	// Init allocates storage for a new run and updates the "latest" pointer.
	Init(ctx context.Context, runID string) error

	// Latest resolves the most recently created run.
	// Returns domain.ErrRunNotFound if no runs exist.
	Latest(ctx context.Context) (string, error)

	// Exists reports whether the run is known to the store.
	Exists(ctx context.Context, runID string) (bool, error)

	// List returns all run IDs in ascending creation order.
	List(ctx context.Context) ([]string, error)

	// Remove deletes a run and everything it owns.
	Remove(ctx context.Context, runID string) error
}
