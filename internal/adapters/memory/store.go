package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/refitlabs/refit/pkg/domain"
)

// Store implements ports.StateStore, ports.ArtifactStore and ports.RunStore
// in memory. Safe for concurrent use. Records are stored as serialized JSON
// so that reads behave like the file adapter (no shared pointers, and a
// corrupt blob surfaces as ErrCorruptState).
type Store struct {
	mu        sync.RWMutex
	states    map[string][]byte
	artifacts map[string]map[int]*domain.Artifact
	runs      []string
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		states:    make(map[string][]byte),
		artifacts: make(map[string]map[int]*domain.Artifact),
	}
}

// Write persists the record in memory.
func (s *Store) Write(ctx context.Context, runID string, rec *domain.StateRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal state record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[runID] = data
	return nil
}

// Read retrieves the record from memory.
func (s *Store) Read(ctx context.Context, runID string) (*domain.StateRecord, error) {
	s.mu.RLock()
	data, ok := s.states[runID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrMissingState)
	}

	var rec domain.StateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("run %s: %w: %v", runID, domain.ErrCorruptState, err)
	}
	return &rec, nil
}

// Corrupt replaces a run's stored record with an unparseable blob. Test hook.
func (s *Store) Corrupt(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[runID] = []byte("{not json")
}

// Save persists a phase artifact, superseding any prior revision.
func (s *Store) Save(ctx context.Context, runID string, phase int, content, summary string) (*domain.Artifact, error) {
	if !domain.ValidPhase(phase) {
		return nil, fmt.Errorf("phase index %d out of range", phase)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byPhase, ok := s.artifacts[runID]
	if !ok {
		byPhase = make(map[int]*domain.Artifact)
		s.artifacts[runID] = byPhase
	}

	revision := 1
	if prior, ok := byPhase[phase]; ok {
		revision = prior.Revision + 1
	}

	artifact := &domain.Artifact{
		RunID:     runID,
		Phase:     phase,
		Content:   content,
		Summary:   summary,
		Revision:  revision,
		CreatedAt: time.Now().UTC(),
	}
	byPhase[phase] = artifact

	ret := *artifact
	return &ret, nil
}

// Load retrieves the artifact for a phase.
func (s *Store) Load(ctx context.Context, runID string, phase int) (*domain.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artifact, ok := s.artifacts[runID][phase]
	if !ok {
		return nil, fmt.Errorf("run %s phase %d: %w", runID, phase, domain.ErrMissingArtifact)
	}

	ret := *artifact
	return &ret, nil
}

// Init registers a new run.
func (s *Store) Init(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.runs {
		if id == runID {
			return fmt.Errorf("run %s already exists", runID)
		}
	}
	s.runs = append(s.runs, runID)
	return nil
}

// Latest resolves the most recently created run.
func (s *Store) Latest(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.runs) == 0 {
		return "", domain.ErrRunNotFound
	}
	sorted := append([]string(nil), s.runs...)
	sort.Strings(sorted)
	return sorted[len(sorted)-1], nil
}

// Exists reports whether the run is registered.
func (s *Store) Exists(ctx context.Context, runID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.runs {
		if id == runID {
			return true, nil
		}
	}
	return false, nil
}

// List returns all run IDs in ascending creation order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := append([]string(nil), s.runs...)
	sort.Strings(sorted)
	return sorted, nil
}

// Remove deletes a run and everything it owns.
func (s *Store) Remove(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, runID)
	delete(s.artifacts, runID)
	for i, id := range s.runs {
		if id == runID {
			s.runs = append(s.runs[:i], s.runs[i+1:]...)
			break
		}
	}
	return nil
}
