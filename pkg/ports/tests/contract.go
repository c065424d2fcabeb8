package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/refitlabs/refit/pkg/domain"
	"github.com/refitlabs/refit/pkg/ports"
)

// Store is the composite surface the contract suites exercise. Every adapter
// in the tree implements all three storage ports; registering the run first
// keeps the suites valid for backends that refuse writes to unknown runs.
type Store interface {
	ports.StateStore
	ports.ArtifactStore
	ports.RunStore
}

// StateStoreContractTest is a reusable suite verifying that an adapter
// complies with ports.StateStore.
func StateStoreContractTest(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("ReadMissing", func(t *testing.T) {
		_, err := store.Read(ctx, "no-such-run")
		if !errors.Is(err, domain.ErrMissingState) {
			t.Errorf("expected ErrMissingState, got %v", err)
		}
	})

	if err := store.Init(ctx, "contract-run"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	t.Run("WriteAndRead", func(t *testing.T) {
		rec := domain.NewStateRecord("contract-run", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		rec.CurrentPhase = 2
		rec.Phases[0].Status = domain.StatusApproved
		rec.Phases[1].Status = domain.StatusRunning
		rec.Decide(1, domain.DecisionApprove, rec.CreatedAt, "")

		if err := store.Write(ctx, "contract-run", rec); err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		loaded, err := store.Read(ctx, "contract-run")
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if loaded.CurrentPhase != 2 {
			t.Errorf("expected CurrentPhase 2, got %d", loaded.CurrentPhase)
		}
		if loaded.Status(1) != domain.StatusApproved {
			t.Errorf("expected phase 1 approved, got %s", loaded.Status(1))
		}
		if len(loaded.Decisions) != 1 || loaded.Decisions[0].Kind != domain.DecisionApprove {
			t.Errorf("decision log not round-tripped: %+v", loaded.Decisions)
		}
	})

	t.Run("OverwriteIsLastWriterWins", func(t *testing.T) {
		rec := domain.NewStateRecord("contract-run", time.Now().UTC())
		rec.Phases[0].Status = domain.StatusFailed
		if err := store.Write(ctx, "contract-run", rec); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		loaded, err := store.Read(ctx, "contract-run")
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if loaded.Status(1) != domain.StatusFailed {
			t.Errorf("expected phase 1 failed after overwrite, got %s", loaded.Status(1))
		}
	})
}

// ArtifactStoreContractTest is a reusable suite verifying that an adapter
// complies with ports.ArtifactStore.
func ArtifactStoreContractTest(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("LoadMissing", func(t *testing.T) {
		_, err := store.Load(ctx, "contract-run", 3)
		if !errors.Is(err, domain.ErrMissingArtifact) {
			t.Errorf("expected ErrMissingArtifact, got %v", err)
		}
	})

	if err := store.Init(ctx, "contract-run"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	t.Run("SaveAndLoad", func(t *testing.T) {
		saved, err := store.Save(ctx, "contract-run", 1, "# Scan results", "12 suites scanned")
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if saved.Revision != 1 {
			t.Errorf("expected revision 1, got %d", saved.Revision)
		}

		loaded, err := store.Load(ctx, "contract-run", 1)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.Content != "# Scan results" || loaded.Summary != "12 suites scanned" {
			t.Errorf("artifact not round-tripped: %+v", loaded)
		}
	})

	t.Run("SaveSupersedes", func(t *testing.T) {
		saved, err := store.Save(ctx, "contract-run", 1, "# Scan results v2", "rescan")
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if saved.Revision != 2 {
			t.Errorf("expected revision 2, got %d", saved.Revision)
		}
		loaded, err := store.Load(ctx, "contract-run", 1)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.Content != "# Scan results v2" {
			t.Errorf("expected superseding content, got %q", loaded.Content)
		}
	})
}
