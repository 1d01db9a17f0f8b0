package binder_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/taskcore/internal/artifact"
	"github.com/shaharia-lab/taskcore/internal/binder"
	"github.com/shaharia-lab/taskcore/internal/registry"
	"github.com/shaharia-lab/taskcore/internal/service"
	"github.com/shaharia-lab/taskcore/internal/storage"
)

type addParams struct {
	A int `json:"a"`
	B int `json:"b"`
}

func TestBind_ParamsOnly(t *testing.T) {
	spec := registry.Spec{Name: "add", ParamsType: &addParams{}}

	frame, release, err := binder.Bind(context.Background(), spec, json.RawMessage(`{"a":2,"b":3}`), binder.InjectionTable{})
	require.NoError(t, err)
	require.NoError(t, release(true))

	params, ok := frame.Params.(*addParams)
	require.True(t, ok)
	assert.Equal(t, 2, params.A)
	assert.Equal(t, 3, params.B)
}

func TestBind_NoParamsType_EmptyPayload(t *testing.T) {
	spec := registry.Spec{Name: "noop"}

	frame, release, err := binder.Bind(context.Background(), spec, nil, binder.InjectionTable{})
	require.NoError(t, err)
	require.NoError(t, release(true))
	assert.Nil(t, frame.Params)
}

func TestBind_InvalidPayload(t *testing.T) {
	spec := registry.Spec{Name: "add", ParamsType: &addParams{}}

	_, _, err := binder.Bind(context.Background(), spec, json.RawMessage(`not-json`), binder.InjectionTable{})
	require.Error(t, err)
	var verr *service.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestBind_MissingCapability(t *testing.T) {
	spec := registry.Spec{Name: "needs-store", Capabilities: []registry.Capability{registry.CapArtifactStore}}

	_, _, err := binder.Bind(context.Background(), spec, nil, binder.InjectionTable{})
	require.Error(t, err)
	var verr *service.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, string(registry.CapArtifactStore), verr.Field)
}

func TestBind_ArtifactStoreCapability(t *testing.T) {
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := artifact.NewSQLiteStore(db)

	spec := registry.Spec{Name: "writer", Capabilities: []registry.Capability{registry.CapArtifactStore}}
	frame, release, err := binder.Bind(context.Background(), spec, nil, binder.InjectionTable{ArtifactStore: store})
	require.NoError(t, err)
	require.NoError(t, release(true))
	assert.Same(t, store, frame.ArtifactStore)
}

func TestBind_SessionCapability_CommitAndRollback(t *testing.T) {
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	spec := registry.Spec{Name: "txn", Capabilities: []registry.Capability{registry.CapSession}}

	frame, release, err := binder.Bind(context.Background(), spec, nil, binder.InjectionTable{DB: db})
	require.NoError(t, err)
	require.NotNil(t, frame.Session)
	require.NoError(t, release(true))

	frame2, release2, err := binder.Bind(context.Background(), spec, nil, binder.InjectionTable{DB: db})
	require.NoError(t, err)
	require.NotNil(t, frame2.Session)
	require.NoError(t, release2(false))
}

func TestBind_EachCallGetsFreshParams(t *testing.T) {
	spec := registry.Spec{Name: "add", ParamsType: &addParams{}}

	frame1, release1, err := binder.Bind(context.Background(), spec, json.RawMessage(`{"a":1}`), binder.InjectionTable{})
	require.NoError(t, err)
	require.NoError(t, release1(true))

	frame2, release2, err := binder.Bind(context.Background(), spec, json.RawMessage(`{"a":2}`), binder.InjectionTable{})
	require.NoError(t, err)
	require.NoError(t, release2(true))

	p1 := frame1.Params.(*addParams)
	p2 := frame2.Params.(*addParams)
	assert.Equal(t, 1, p1.A)
	assert.Equal(t, 2, p2.A)
}
