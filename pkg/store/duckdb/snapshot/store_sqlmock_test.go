package snapshot

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/de-tools/governance-atlas/pkg/models/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*snapshotStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	return &snapshotStore{db: db, now: func() time.Time { return now }}, mock
}

var headerColumns = []string{
	"id", "source_timestamp", "created_at", "schema_version",
	"assignment_count", "exemption_count", "test_count",
}

func TestStore_Save_Mock(t *testing.T) {
	st, mock := newMockStore(t)
	source := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("insert", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO snapshots")).
			WithArgs("snap-1", source, time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC), 1, 4, 0, 9, `{"schema_version":1}`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		saved, err := st.Save(context.Background(), store.Snapshot{
			ID: "snap-1", SourceTimestamp: source, SchemaVersion: 1,
			AssignmentCount: 4, TestCount: 9, Payload: []byte(`{"schema_version":1}`),
		})
		require.NoError(t, err)
		assert.Equal(t, "snap-1", saved.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO snapshots")).
			WillReturnError(errors.New("disk full"))

		_, err := st.Save(context.Background(), store.Snapshot{ID: "snap-2", Payload: []byte(`{}`)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_Get_Mock(t *testing.T) {
	st, mock := newMockStore(t)
	ts := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM snapshots WHERE id = ?")).
			WithArgs("snap-1").
			WillReturnRows(sqlmock.NewRows(append(headerColumns, "payload")).
				AddRow("snap-1", ts, ts, 1, 4, 0, 9, `{"schema_version":1}`))

		got, err := st.Get(context.Background(), "snap-1")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"schema_version":1}`), got.Payload)
		assert.Equal(t, 9, got.TestCount)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM snapshots WHERE id = ?")).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(append(headerColumns, "payload")))

		_, err := st.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrSnapshotNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_List_Mock(t *testing.T) {
	st, mock := newMockStore(t)
	ts := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("with limit", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY source_timestamp DESC, created_at DESC LIMIT ?")).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows(headerColumns).AddRow("snap-1", ts, ts, 1, 4, 0, 9))

		headers, err := st.List(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, headers, 1)
		assert.Equal(t, "snap-1", headers[0].ID)
	})

	t.Run("query failure", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM snapshots")).
			WillReturnError(errors.New("connection reset"))

		_, err := st.List(context.Background(), 0)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
