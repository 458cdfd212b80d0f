package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/store"
	"github.com/google/uuid"
)

const extension = ".snapshot.json"

type envelope struct {
	ID              string          `json:"id"`
	SourceTimestamp time.Time       `json:"source_timestamp"`
	CreatedAt       time.Time       `json:"created_at"`
	SchemaVersion   int             `json:"schema_version"`
	AssignmentCount int             `json:"assignment_count"`
	ExemptionCount  int             `json:"exemption_count"`
	TestCount       int             `json:"test_count"`
	Payload         json.RawMessage `json:"payload"`
}

// SnapshotStore keeps one JSON file per snapshot in a directory.
type SnapshotStore struct {
	dir string
	now func() time.Time
}

func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("snapshot directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &SnapshotStore{dir: dir, now: time.Now}, nil
}

func (s *SnapshotStore) path(id string) string {
	return filepath.Join(s.dir, id+extension)
}

func (s *SnapshotStore) Save(_ context.Context, snapshot store.Snapshot) (store.Snapshot, error) {
	if len(snapshot.Payload) == 0 {
		return store.Snapshot{}, fmt.Errorf("snapshot payload is empty")
	}
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if strings.ContainsAny(snapshot.ID, `/\`) {
		return store.Snapshot{}, fmt.Errorf("invalid snapshot id %q", snapshot.ID)
	}
	snapshot.CreatedAt = s.now().UTC()

	data, err := json.MarshalIndent(envelope{
		ID:              snapshot.ID,
		SourceTimestamp: snapshot.SourceTimestamp,
		CreatedAt:       snapshot.CreatedAt,
		SchemaVersion:   snapshot.SchemaVersion,
		AssignmentCount: snapshot.AssignmentCount,
		ExemptionCount:  snapshot.ExemptionCount,
		TestCount:       snapshot.TestCount,
		Payload:         snapshot.Payload,
	}, "", "  ")
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp := s.path(snapshot.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path(snapshot.ID)); err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to write snapshot: %w", err)
	}
	return snapshot, nil
}

func (s *SnapshotStore) Get(_ context.Context, id string) (store.Snapshot, error) {
	if strings.ContainsAny(id, `/\`) {
		return store.Snapshot{}, store.ErrSnapshotNotFound
	}
	return s.read(s.path(id))
}

func (s *SnapshotStore) Latest(ctx context.Context) (store.Snapshot, error) {
	all, err := s.all()
	if err != nil {
		return store.Snapshot{}, err
	}
	if len(all) == 0 {
		return store.Snapshot{}, store.ErrSnapshotNotFound
	}
	return all[0], nil
}

func (s *SnapshotStore) Previous(_ context.Context, id string) (store.Snapshot, error) {
	all, err := s.all()
	if err != nil {
		return store.Snapshot{}, err
	}
	for i, snap := range all {
		if snap.ID != id {
			continue
		}
		if i+1 < len(all) {
			return all[i+1], nil
		}
		return store.Snapshot{}, store.ErrSnapshotNotFound
	}
	return store.Snapshot{}, store.ErrSnapshotNotFound
}

func (s *SnapshotStore) List(_ context.Context, limit int) ([]store.SnapshotHeader, error) {
	all, err := s.all()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	headers := make([]store.SnapshotHeader, 0, len(all))
	for _, snap := range all {
		headers = append(headers, snap.Header())
	}
	return headers, nil
}

// all reads every snapshot, newest first.
func (s *SnapshotStore) all() ([]store.Snapshot, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+extension))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	snapshots := make([]store.Snapshot, 0, len(matches))
	for _, m := range matches {
		snap, err := s.read(m)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		a, b := snapshots[i], snapshots[j]
		if !a.SourceTimestamp.Equal(b.SourceTimestamp) {
			return a.SourceTimestamp.After(b.SourceTimestamp)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return snapshots, nil
}

func (s *SnapshotStore) read(path string) (store.Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return store.Snapshot{}, store.ErrSnapshotNotFound
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to decode snapshot %s: %w", filepath.Base(path), err)
	}
	return store.Snapshot{
		ID:              env.ID,
		SourceTimestamp: env.SourceTimestamp,
		CreatedAt:       env.CreatedAt,
		SchemaVersion:   env.SchemaVersion,
		AssignmentCount: env.AssignmentCount,
		ExemptionCount:  env.ExemptionCount,
		TestCount:       env.TestCount,
		Payload:         []byte(env.Payload),
	}, nil
}
