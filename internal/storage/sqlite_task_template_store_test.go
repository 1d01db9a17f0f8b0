package storage_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/taskcore/internal/id"
	"github.com/shaharia-lab/taskcore/internal/storage"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteTaskTemplateStore_CreateGetUpdateDelete(t *testing.T) {
	db := newTestDB(t)
	store := storage.NewSQLiteTaskTemplateStore(db)

	task := &storage.TaskTemplate{
		Command: "echo hi",
		Kind:    storage.KindShell,
		Enabled: true,
	}
	require.NoError(t, store.Create(task))
	assert.False(t, task.ID.IsZero())
	assert.False(t, task.CreatedAt.IsZero())

	got, err := store.Get(task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "echo hi", got.Command)
	assert.True(t, got.Enabled)

	got.Command = "echo bye"
	got.Enabled = false
	require.NoError(t, store.Update(got))

	updated, err := store.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "echo bye", updated.Command)
	assert.False(t, updated.Enabled)

	require.NoError(t, store.Delete(task.ID))
	missing, err := store.Get(task.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteTaskTemplateStore_GetMissing(t *testing.T) {
	db := newTestDB(t)
	store := storage.NewSQLiteTaskTemplateStore(db)

	got, err := store.Get(id.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteTaskTemplateStore_ListFiltersByEnabled(t *testing.T) {
	db := newTestDB(t)
	store := storage.NewSQLiteTaskTemplateStore(db)

	require.NoError(t, store.Create(&storage.TaskTemplate{Command: "a", Enabled: true}))
	require.NoError(t, store.Create(&storage.TaskTemplate{Command: "b", Enabled: false}))

	all, err := store.List(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	enabledOnly := true
	enabled, err := store.List(&enabledOnly)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "a", enabled[0].Command)

	disabledOnly := false
	disabled, err := store.List(&disabledOnly)
	require.NoError(t, err)
	require.Len(t, disabled, 1)
	assert.Equal(t, "b", disabled[0].Command)
}

func TestSQLiteTaskTemplateStore_UpdateMissing(t *testing.T) {
	db := newTestDB(t)
	store := storage.NewSQLiteTaskTemplateStore(db)

	err := store.Update(&storage.TaskTemplate{ID: id.New(), Command: "x"})
	assert.Error(t, err)
}
