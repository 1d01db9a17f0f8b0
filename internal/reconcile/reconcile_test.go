package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/taskcore/internal/reconcile"
	"github.com/shaharia-lab/taskcore/internal/registry"
	"github.com/shaharia-lab/taskcore/internal/storage"
)

func newStore(t *testing.T) storage.TaskTemplateStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage.NewSQLiteTaskTemplateStore(db)
}

func TestReconcile_DisablesOrphanedFunctionTask(t *testing.T) {
	store := newStore(t)
	reg := registry.New()

	orphan := &storage.TaskTemplate{Command: "missing_fn", Kind: storage.KindFunction, Enabled: true}
	require.NoError(t, store.Create(orphan))

	summary, err := reconcile.Reconcile(context.Background(), store, reg, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, []string{orphan.ID.String()}, summary.Disabled)

	got, err := store.Get(orphan.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
}

func TestReconcile_LeavesResolvedFunctionTaskEnabled(t *testing.T) {
	store := newStore(t)
	reg := registry.New()
	require.NoError(t, registry.RegisterBuiltins(reg))

	tmpl := &storage.TaskTemplate{Command: "current_time", Kind: storage.KindFunction, Enabled: true}
	require.NoError(t, store.Create(tmpl))

	summary, err := reconcile.Reconcile(context.Background(), store, reg, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Checked)
	assert.Empty(t, summary.Disabled)

	got, err := store.Get(tmpl.ID)
	require.NoError(t, err)
	assert.True(t, got.Enabled)
}

func TestReconcile_IgnoresShellTasks(t *testing.T) {
	store := newStore(t)
	reg := registry.New()

	shellTask := &storage.TaskTemplate{Command: "echo hi", Kind: storage.KindShell, Enabled: true}
	require.NoError(t, store.Create(shellTask))

	summary, err := reconcile.Reconcile(context.Background(), store, reg, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Checked)

	got, err := store.Get(shellTask.ID)
	require.NoError(t, err)
	assert.True(t, got.Enabled)
}
