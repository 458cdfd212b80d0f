package assessment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/models/store"
	"github.com/de-tools/governance-atlas/pkg/store/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Save(ctx context.Context, s store.Snapshot) (store.Snapshot, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(store.Snapshot), args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, id string) (store.Snapshot, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(store.Snapshot), args.Error(1)
}

func (m *mockStore) Latest(ctx context.Context) (store.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(store.Snapshot), args.Error(1)
}

func (m *mockStore) Previous(ctx context.Context, id string) (store.Snapshot, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(store.Snapshot), args.Error(1)
}

func (m *mockStore) List(ctx context.Context, limit int) ([]store.SnapshotHeader, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]store.SnapshotHeader), args.Error(1)
}

func TestArchive_RecordAndDelta(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	st, err := file.NewSnapshotStore(t.TempDir())
	require.NoError(t, err)
	archive, err := NewArchive(st, svc)
	require.NoError(t, err)

	first, err := svc.Run(ctx, tenantInput())
	require.NoError(t, err)
	saved1, err := archive.Record(ctx, first.Snapshot)
	require.NoError(t, err)
	require.NotEmpty(t, saved1.ID)

	t.Run("no previous", func(t *testing.T) {
		_, err := archive.Delta(ctx, saved1.ID, "")
		assert.ErrorIs(t, err, ErrNoPreviousSnapshot)
	})

	in := tenantInput()
	in.SourceTimestamp = in.SourceTimestamp.Add(24 * time.Hour)
	in.Assignments = in.Assignments[:1]
	second, err := svc.Run(ctx, in)
	require.NoError(t, err)
	saved2, err := archive.Record(ctx, second.Snapshot)
	require.NoError(t, err)

	t.Run("load round trip", func(t *testing.T) {
		loaded, err := archive.Load(ctx, saved1.ID)
		require.NoError(t, err)
		assert.Equal(t, saved1, loaded)
	})

	t.Run("implicit previous", func(t *testing.T) {
		report, err := archive.Delta(ctx, saved2.ID, "")
		require.NoError(t, err)
		require.Len(t, report.RemovedAssignments, 1)
		assert.Equal(t, "Deny-PublicIP", report.RemovedAssignments[0].Record.Name)
		assert.Equal(t, "-1 Deny", report.EffectShifts.String())
	})

	t.Run("explicit previous", func(t *testing.T) {
		report, err := archive.Delta(ctx, saved1.ID, saved2.ID)
		require.NoError(t, err)
		assert.Len(t, report.NewAssignments, 1)
	})

	t.Run("list", func(t *testing.T) {
		headers, err := archive.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, headers, 2)
		assert.Equal(t, saved2.ID, headers[0].ID)
	})
}

func TestArchive_StoreErrors(t *testing.T) {
	ctx := context.Background()
	st := new(mockStore)
	archive, err := NewArchive(st, newTestService(t))
	require.NoError(t, err)

	st.On("Save", ctx, mock.Anything).Return(store.Snapshot{}, errors.New("read-only filesystem"))
	st.On("Get", ctx, "missing").Return(store.Snapshot{}, store.ErrSnapshotNotFound)

	_, err = archive.Record(ctx, domain.Snapshot{})
	assert.ErrorContains(t, err, "read-only filesystem")

	_, err = archive.Delta(ctx, "missing", "")
	assert.ErrorIs(t, err, store.ErrSnapshotNotFound)

	st.AssertExpectations(t)

	_, err = NewArchive(nil, newTestService(t))
	assert.Error(t, err)
}
