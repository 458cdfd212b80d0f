package assessment

import (
	"context"
	"errors"
	"fmt"

	"github.com/de-tools/governance-atlas/pkg/adapters"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/models/store"
)

// SnapshotStore is satisfied by the DuckDB and file snapshot stores.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot store.Snapshot) (store.Snapshot, error)
	Get(ctx context.Context, id string) (store.Snapshot, error)
	Latest(ctx context.Context) (store.Snapshot, error)
	Previous(ctx context.Context, id string) (store.Snapshot, error)
	List(ctx context.Context, limit int) ([]store.SnapshotHeader, error)
}

var ErrNoPreviousSnapshot = errors.New("no previous snapshot")

// Archive stores snapshots and compares them against earlier runs.
type Archive struct {
	store   SnapshotStore
	service Service
}

func NewArchive(st SnapshotStore, service Service) (*Archive, error) {
	if st == nil {
		return nil, fmt.Errorf("snapshot store is nil")
	}
	if service == nil {
		return nil, fmt.Errorf("assessment service is nil")
	}
	return &Archive{store: st, service: service}, nil
}

// Record persists the snapshot and returns it with its assigned id.
func (a *Archive) Record(ctx context.Context, snapshot domain.Snapshot) (domain.Snapshot, error) {
	row, err := adapters.MapSnapshotDomainToStore(snapshot)
	if err != nil {
		return domain.Snapshot{}, err
	}
	saved, err := a.store.Save(ctx, row)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to save snapshot: %w", err)
	}
	snapshot.ID = saved.ID
	return snapshot, nil
}

func (a *Archive) Load(ctx context.Context, id string) (domain.Snapshot, error) {
	row, err := a.store.Get(ctx, id)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to load snapshot %s: %w", id, err)
	}
	return adapters.MapSnapshotStoreToDomain(ctx, row)
}

func (a *Archive) List(ctx context.Context, limit int) ([]store.SnapshotHeader, error) {
	headers, err := a.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return headers, nil
}

// Delta compares snapshot id against previousID, or against the snapshot stored
// before it when previousID is empty.
func (a *Archive) Delta(ctx context.Context, id, previousID string) (domain.DeltaReport, error) {
	current, err := a.Load(ctx, id)
	if err != nil {
		return domain.DeltaReport{}, err
	}

	var previous domain.Snapshot
	if previousID != "" {
		previous, err = a.Load(ctx, previousID)
		if err != nil {
			return domain.DeltaReport{}, err
		}
	} else {
		row, err := a.store.Previous(ctx, id)
		if errors.Is(err, store.ErrSnapshotNotFound) {
			return domain.DeltaReport{}, ErrNoPreviousSnapshot
		}
		if err != nil {
			return domain.DeltaReport{}, fmt.Errorf("failed to find previous snapshot: %w", err)
		}
		previous, err = adapters.MapSnapshotStoreToDomain(ctx, row)
		if err != nil {
			return domain.DeltaReport{}, err
		}
	}

	return a.service.Compare(ctx, previous, current), nil
}
