package file_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/refitlabs/refit/internal/adapters/file"
	"github.com/refitlabs/refit/pkg/domain"
	"github.com/refitlabs/refit/pkg/ports"
	"github.com/refitlabs/refit/pkg/ports/tests"
)

// Ensure Store implements all three storage ports.
var (
	_ ports.StateStore    = (*file.Store)(nil)
	_ ports.ArtifactStore = (*file.Store)(nil)
	_ ports.RunStore      = (*file.Store)(nil)
)

func TestStore_StateContract(t *testing.T) {
	tests.StateStoreContractTest(t, file.New(t.TempDir()))
}

func TestStore_ArtifactContract(t *testing.T) {
	tests.ArtifactStoreContractTest(t, file.New(t.TempDir()))
}

func TestStore_CorruptStateSurfaced(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	if err := os.MkdirAll(filepath.Join(dir, "run-1"), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "run-1", "state.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, err := store.Read(ctx, "run-1")
	if !errors.Is(err, domain.ErrCorruptState) {
		t.Errorf("expected ErrCorruptState, got %v", err)
	}

	// The corrupt file must be left untouched for inspection.
	data, err := os.ReadFile(filepath.Join(dir, "run-1", "state.json"))
	if err != nil || string(data) != "{not json" {
		t.Errorf("corrupt file was modified: %q, %v", data, err)
	}
}

func TestStore_AtomicWriteKeepsPriorRecord(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	if err := store.Init(ctx, "run-1"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	rec := domain.NewStateRecord("run-1", time.Now().UTC())
	rec.CurrentPhase = 1
	rec.Phases[0].Status = domain.StatusAwaitingApproval
	if err := store.Write(ctx, "run-1", rec); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Simulate a failure mid-write: make the run directory unwritable so the
	// temp file cannot even be created.
	runDir := filepath.Join(dir, "run-1")
	if err := os.Chmod(runDir, 0555); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(runDir, 0755) })

	next := domain.NewStateRecord("run-1", time.Now().UTC())
	next.CurrentPhase = 2
	if err := store.Write(ctx, "run-1", next); err == nil {
		t.Fatal("expected Write to fail on read-only directory")
	}

	if err := os.Chmod(runDir, 0755); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}

	loaded, err := store.Read(ctx, "run-1")
	if err != nil {
		t.Fatalf("Read failed after failed write: %v", err)
	}
	if loaded.CurrentPhase != 1 || loaded.Status(1) != domain.StatusAwaitingApproval {
		t.Errorf("prior record not intact: %+v", loaded)
	}
}

func TestStore_RunLifecycle(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	t.Run("LatestWithoutRuns", func(t *testing.T) {
		_, err := store.Latest(ctx)
		if !errors.Is(err, domain.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("InitAndLatest", func(t *testing.T) {
		for _, id := range []string{"20250601T100000", "20250601T110000", "20250601T120000"} {
			if err := store.Init(ctx, id); err != nil {
				t.Fatalf("Init(%s) failed: %v", id, err)
			}
		}

		latest, err := store.Latest(ctx)
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if latest != "20250601T120000" {
			t.Errorf("expected latest 20250601T120000, got %s", latest)
		}
	})

	t.Run("InitDuplicate", func(t *testing.T) {
		if err := store.Init(ctx, "20250601T100000"); err == nil {
			t.Error("expected Init of existing run to fail")
		}
	})

	t.Run("ListAscending", func(t *testing.T) {
		runs, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(runs) != 3 || runs[0] != "20250601T100000" || runs[2] != "20250601T120000" {
			t.Errorf("unexpected run order: %v", runs)
		}
	})

	t.Run("LatestSurvivesStalePointer", func(t *testing.T) {
		// Remove the newest run out-of-band; the pointer is now stale and
		// Latest must fall back to the scan.
		if err := os.RemoveAll(filepath.Join(dir, "20250601T120000")); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		latest, err := store.Latest(ctx)
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if latest != "20250601T110000" {
			t.Errorf("expected fallback latest 20250601T110000, got %s", latest)
		}
	})

	t.Run("RemoveRepointsLatest", func(t *testing.T) {
		if err := store.Remove(ctx, "20250601T110000"); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		latest, err := store.Latest(ctx)
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if latest != "20250601T100000" {
			t.Errorf("expected latest 20250601T100000 after remove, got %s", latest)
		}
	})
}

func TestStore_WriteRejectsUnregisteredRun(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	rec := domain.NewStateRecord("ghost", time.Now().UTC())
	if err := store.Write(ctx, "ghost", rec); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("Write: expected ErrRunNotFound, got %v", err)
	}
	if _, err := store.Save(ctx, "ghost", 1, "content", "summary"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("Save: expected ErrRunNotFound, got %v", err)
	}

	// The rejected writes must not have materialized a run directory.
	runs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("unexpected runs materialized: %v", runs)
	}
}
