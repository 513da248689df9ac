package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

func strPtr(s string) *string { return &s }

func TestStateRepo_LoadEmpty(t *testing.T) {
	repo := NewStateRepo(setupTestDB(t))

	states, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestStateRepo_SaveAndLoad(t *testing.T) {
	repo := NewStateRepo(setupTestDB(t))
	ctx := context.Background()
	checked := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := repo.Save(ctx, map[string]model.RepositoryState{
		"octo/demo": {
			LastCommitID:  strPtr("def5678"),
			LastTagName:   strPtr("v1.2.0"),
			LastCheckedAt: &checked,
		},
		"octo/empty": {},
	})
	require.NoError(t, err)

	states, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)

	demo := states["octo/demo"]
	assert.Equal(t, "def5678", *demo.LastCommitID)
	assert.Equal(t, "v1.2.0", *demo.LastTagName)
	assert.Nil(t, demo.LastReleaseTag)
	require.NotNil(t, demo.LastCheckedAt)
	assert.True(t, checked.Equal(*demo.LastCheckedAt))

	empty := states["octo/empty"]
	assert.Nil(t, empty.LastCommitID)
	assert.Nil(t, empty.LastCheckedAt)
}

func TestStateRepo_SaveUpsertsAndNeverDeletes(t *testing.T) {
	repo := NewStateRepo(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, map[string]model.RepositoryState{
		"octo/a": {LastCommitID: strPtr("aaaaaaa")},
		"octo/b": {LastCommitID: strPtr("bbbbbbb")},
	}))
	require.NoError(t, repo.Save(ctx, map[string]model.RepositoryState{
		"octo/a": {LastCommitID: strPtr("ccccccc"), LastTagName: strPtr("v2")},
	}))

	states, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "ccccccc", *states["octo/a"].LastCommitID)
	assert.Equal(t, "v2", *states["octo/a"].LastTagName)
	assert.Equal(t, "bbbbbbb", *states["octo/b"].LastCommitID)
}

func TestStateRepo_SaveCancelledContext(t *testing.T) {
	repo := NewStateRepo(setupTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, map[string]model.RepositoryState{"octo/a": {}})

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPersistence)
}

func TestNewDB_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	db, err := NewDB(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(db.Writer))
	// Second run is a no-op.
	require.NoError(t, RunMigrations(db.Writer))
	assert.Equal(t, path, db.Path())

	repo := NewStateRepo(db)
	require.NoError(t, repo.Save(context.Background(), map[string]model.RepositoryState{"octo/a": {LastTagName: strPtr("v1")}}))

	states, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1", *states["octo/a"].LastTagName)
}

func TestParseTime_SQLiteFormats(t *testing.T) {
	for _, s := range []string{"2026-03-01 12:00:00", "2026-03-01T12:00:00Z", "2026-03-01T12:00:00.5+00:00"} {
		got, err := parseTime(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2026, got.Year())
	}

	_, err := parseTime("soon")
	assert.Error(t, err)
}
