package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/refitlabs/refit/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.StateStore, ports.ArtifactStore and ports.RunStore
// on Redis. A SET per run holds the serialized state record, artifacts live
// under per-phase keys, and a ZSET ordered by creation time backs run listing
// and "latest" resolution.
type Store struct {
	client *backend.Client
	prefix string
}

// Option configures the Store.
type Option func(*Store)

// WithPrefix sets the key prefix for runs.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "refit:run:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) stateKey(runID string) string {
	return s.prefix + runID + ":state"
}

func (s *Store) artifactKey(runID string, phase int) string {
	return fmt.Sprintf("%s%s:artifact:%d", s.prefix, runID, phase)
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Write persists the state record. Redis SET replaces the value in one step,
// so readers never observe a partial record.
func (s *Store) Write(ctx context.Context, runID string, rec *domain.StateRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal state record: %w", err)
	}
	if err := s.client.Set(ctx, s.stateKey(runID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save state record to redis: %w", err)
	}
	return nil
}

// Read retrieves the state record.
func (s *Store) Read(ctx context.Context, runID string) (*domain.StateRecord, error) {
	val, err := s.client.Get(ctx, s.stateKey(runID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("run %s: %w", runID, domain.ErrMissingState)
		}
		return nil, fmt.Errorf("failed to get state record from redis: %w", err)
	}

	var rec domain.StateRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("run %s: %w: %v", runID, domain.ErrCorruptState, err)
	}
	return &rec, nil
}

// Save persists a phase artifact, superseding any prior revision.
func (s *Store) Save(ctx context.Context, runID string, phase int, content, summary string) (*domain.Artifact, error) {
	if !domain.ValidPhase(phase) {
		return nil, fmt.Errorf("phase index %d out of range", phase)
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
	data, err := json.Marshal(artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal artifact: %w", err)
	}
	if err := s.client.Set(ctx, s.artifactKey(runID, phase), data, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to save artifact to redis: %w", err)
	}
	return artifact, nil
}

// Load retrieves the artifact for a phase.
func (s *Store) Load(ctx context.Context, runID string, phase int) (*domain.Artifact, error) {
	val, err := s.client.Get(ctx, s.artifactKey(runID, phase)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("run %s phase %d: %w", runID, phase, domain.ErrMissingArtifact)
		}
		return nil, fmt.Errorf("failed to get artifact from redis: %w", err)
	}

	var artifact domain.Artifact
	if err := json.Unmarshal([]byte(val), &artifact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}
	return &artifact, nil
}

// Init registers a new run in the creation-ordered index.
func (s *Store) Init(ctx context.Context, runID string) error {
	added, err := s.client.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: runID,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to index run in redis: %w", err)
	}
	if added == 0 {
		return fmt.Errorf("run %s already exists", runID)
	}
	return nil
}

// Latest resolves the most recently created run.
func (s *Store) Latest(ctx context.Context) (string, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, 0).Result()
	if err != nil {
		return "", fmt.Errorf("failed to query run index: %w", err)
	}
	if len(ids) == 0 {
		return "", domain.ErrRunNotFound
	}
	return ids[0], nil
}

// Exists reports whether the run is indexed.
func (s *Store) Exists(ctx context.Context, runID string) (bool, error) {
	_, err := s.client.ZScore(ctx, s.indexKey(), runID).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to query run index: %w", err)
	}
	return true, nil
}

// List returns all run IDs in ascending creation order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return ids, nil
}

// Remove deletes a run's state, artifacts and index entry.
func (s *Store) Remove(ctx context.Context, runID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.stateKey(runID))
	for phase := 1; phase <= domain.PhaseCount; phase++ {
		pipe.Del(ctx, s.artifactKey(runID, phase))
	}
	pipe.ZRem(ctx, s.indexKey(), runID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove run from redis: %w", err)
	}
	return nil
}
