package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/store"
	"github.com/de-tools/governance-atlas/pkg/store/duckdb"
	"github.com/google/uuid"
)

// Store persists assessment snapshots in DuckDB. Snapshots are ordered by
// source timestamp, then by the time they were saved.
type Store interface {
	Save(ctx context.Context, snapshot store.Snapshot) (store.Snapshot, error)
	Get(ctx context.Context, id string) (store.Snapshot, error)
	Latest(ctx context.Context) (store.Snapshot, error)
	Previous(ctx context.Context, id string) (store.Snapshot, error)
	List(ctx context.Context, limit int) ([]store.SnapshotHeader, error)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type snapshotStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &snapshotStore{
		db:  db,
		now: time.Now,
	}, nil
}

func (s *snapshotStore) conn(ctx context.Context) querier {
	if tx := duckdb.GetTransaction(ctx); tx != nil {
		return tx
	}
	return s.db
}

const selectColumns = `id, source_timestamp, created_at, schema_version, assignment_count, exemption_count, test_count`

// Save assigns an id when the snapshot has none and stamps CreatedAt.
func (s *snapshotStore) Save(ctx context.Context, snapshot store.Snapshot) (store.Snapshot, error) {
	if len(snapshot.Payload) == 0 {
		return store.Snapshot{}, fmt.Errorf("snapshot payload is empty")
	}
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	snapshot.CreatedAt = s.now().UTC()

	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO snapshots (
			id, source_timestamp, created_at, schema_version,
			assignment_count, exemption_count, test_count, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.ID,
		snapshot.SourceTimestamp,
		snapshot.CreatedAt,
		snapshot.SchemaVersion,
		snapshot.AssignmentCount,
		snapshot.ExemptionCount,
		snapshot.TestCount,
		string(snapshot.Payload),
	)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	return snapshot, nil
}

func (s *snapshotStore) Get(ctx context.Context, id string) (store.Snapshot, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+selectColumns+`, CAST(payload AS VARCHAR) FROM snapshots WHERE id = ?`, id)
	return scanSnapshot(row)
}

func (s *snapshotStore) Latest(ctx context.Context) (store.Snapshot, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+selectColumns+`, CAST(payload AS VARCHAR) FROM snapshots
		ORDER BY source_timestamp DESC, created_at DESC LIMIT 1`)
	return scanSnapshot(row)
}

// Previous returns the snapshot ordered immediately before id.
func (s *snapshotStore) Previous(ctx context.Context, id string) (store.Snapshot, error) {
	var previous store.Snapshot
	err := duckdb.InTransaction(ctx, s.db, func(ctx context.Context) error {
		current, err := s.Get(ctx, id)
		if err != nil {
			return err
		}

		row := s.conn(ctx).QueryRowContext(ctx, `
			SELECT `+selectColumns+`, CAST(payload AS VARCHAR) FROM snapshots
			WHERE id <> ? AND (source_timestamp < ? OR (source_timestamp = ? AND created_at < ?))
			ORDER BY source_timestamp DESC, created_at DESC LIMIT 1`,
			current.ID, current.SourceTimestamp, current.SourceTimestamp, current.CreatedAt)
		previous, err = scanSnapshot(row)
		return err
	})
	if err != nil {
		return store.Snapshot{}, err
	}
	return previous, nil
}

// List returns headers newest first. A non-positive limit returns all snapshots.
func (s *snapshotStore) List(ctx context.Context, limit int) ([]store.SnapshotHeader, error) {
	query := `SELECT ` + selectColumns + ` FROM snapshots ORDER BY source_timestamp DESC, created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	headers := make([]store.SnapshotHeader, 0)
	for rows.Next() {
		var h store.SnapshotHeader
		if err := rows.Scan(
			&h.ID, &h.SourceTimestamp, &h.CreatedAt, &h.SchemaVersion,
			&h.AssignmentCount, &h.ExemptionCount, &h.TestCount,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot header: %w", err)
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return headers, nil
}

func scanSnapshot(row *sql.Row) (store.Snapshot, error) {
	var (
		snapshot store.Snapshot
		payload  string
	)
	err := row.Scan(
		&snapshot.ID, &snapshot.SourceTimestamp, &snapshot.CreatedAt, &snapshot.SchemaVersion,
		&snapshot.AssignmentCount, &snapshot.ExemptionCount, &snapshot.TestCount, &payload,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Snapshot{}, store.ErrSnapshotNotFound
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}
	snapshot.Payload = []byte(payload)
	return snapshot, nil
}
