package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/refitlabs/refit/pkg/domain"
)

const (
	stateFile   = "state.json"
	latestFile  = "latest"
	artifactFmt = "artifact-%d.json"
)

// Store implements ports.StateStore, ports.ArtifactStore and ports.RunStore
// using the local filesystem. Each run owns one directory under BasePath,
// named by its ID, holding a state file and one artifact file per phase
// reached. A separate pointer file resolves "latest".
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".refit/runs".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".refit", "runs")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.BasePath, runID)
}

// requireRun refuses to write into a run directory that Init never created.
// Materializing the directory here would make List and Latest report a run
// that was never registered.
func (s *Store) requireRun(runID string) error {
	if _, err := os.Stat(s.runDir(runID)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("run %s: %w", runID, domain.ErrRunNotFound)
		}
		return fmt.Errorf("failed to stat run directory: %w", err)
	}
	return nil
}

// Write persists the state record atomically: temp file in the run directory,
// fsync, then rename over the live record. The live record is never written
// in place.
func (s *Store) Write(ctx context.Context, runID string, rec *domain.StateRecord) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}
	if err := s.requireRun(runID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state record: %w", err)
	}

	return atomicWrite(s.runDir(runID), stateFile, data)
}

// Read retrieves the state record for a run.
func (s *Store) Read(ctx context.Context, runID string) (*domain.StateRecord, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}

	data, err := os.ReadFile(filepath.Join(s.runDir(runID), stateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %s: %w", runID, domain.ErrMissingState)
		}
		return nil, fmt.Errorf("failed to read state record: %w", err)
	}

	var rec domain.StateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// No repair attempt: surface the parse failure and leave the file alone.
		return nil, fmt.Errorf("run %s: %w: %v", runID, domain.ErrCorruptState, err)
	}

	return &rec, nil
}

// Save persists a phase artifact, superseding any prior revision.
func (s *Store) Save(ctx context.Context, runID string, phase int, content, summary string) (*domain.Artifact, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	if !domain.ValidPhase(phase) {
		return nil, fmt.Errorf("phase index %d out of range", phase)
	}
	if err := s.requireRun(runID); err != nil {
		return nil, err
	}

	revision := 1
	if prior, err := s.Load(ctx, runID, phase); err == nil {
		revision = prior.Revision + 1
	} else if !errors.Is(err, domain.ErrMissingArtifact) {
		return nil, err
	}

	artifact := &domain.Artifact{
		RunID:     runID,
		Phase:     phase,
		Content:   content,
		Summary:   summary,
		Revision:  revision,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal artifact: %w", err)
	}

	if err := atomicWrite(s.runDir(runID), fmt.Sprintf(artifactFmt, phase), data); err != nil {
		return nil, err
	}
	return artifact, nil
}

// Load retrieves the artifact for a phase.
func (s *Store) Load(ctx context.Context, runID string, phase int) (*domain.Artifact, error) {
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), fmt.Sprintf(artifactFmt, phase)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %s phase %d: %w", runID, phase, domain.ErrMissingArtifact)
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var artifact domain.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}
	return &artifact, nil
}

// Init allocates the run directory and repoints "latest" at it.
func (s *Store) Init(ctx context.Context, runID string) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}
	dir := s.runDir(runID)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("run %s already exists", runID)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	return atomicWrite(s.BasePath, latestFile, []byte(runID))
}

// Latest resolves the most recently created run. The pointer file is the fast
// path; if it is missing or stale, fall back to a lexicographic scan (run IDs
// sort by creation time).
func (s *Store) Latest(ctx context.Context) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.BasePath, latestFile))
	if err == nil {
		runID := string(data)
		if ok, _ := s.Exists(ctx, runID); ok {
			return runID, nil
		}
	}

	runs, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", domain.ErrRunNotFound
	}
	return runs[len(runs)-1], nil
}

// Exists reports whether the run directory is present.
func (s *Store) Exists(ctx context.Context, runID string) (bool, error) {
	if runID == "" {
		return false, nil
	}
	info, err := os.Stat(s.runDir(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat run directory: %w", err)
	}
	return info.IsDir(), nil
}

// List returns all run IDs in ascending creation order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []string
	for _, entry := range entries {
		if entry.IsDir() {
			runs = append(runs, entry.Name())
		}
	}
	sort.Strings(runs)
	return runs, nil
}

// Remove deletes a run directory. If "latest" pointed at it, the pointer is
// recomputed from the remaining runs.
func (s *Store) Remove(ctx context.Context, runID string) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}
	if err := os.RemoveAll(s.runDir(runID)); err != nil {
		return fmt.Errorf("failed to remove run directory: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(s.BasePath, latestFile))
	if err != nil || string(data) != runID {
		return nil
	}
	runs, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return os.Remove(filepath.Join(s.BasePath, latestFile))
	}
	return atomicWrite(s.BasePath, latestFile, []byte(runs[len(runs)-1]))
}

// atomicWrite writes data to dir/name via a temp file in the same directory
// (required for atomic rename), fsync and rename.
func atomicWrite(dir, name string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, "tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // No-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	return nil
}
