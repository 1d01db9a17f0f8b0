package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/taskcore/internal/registry"
)

func echoSpec(name string) registry.Spec {
	return registry.Spec{
		Name: name,
		Func: func(_ context.Context, _ *registry.Frame) (any, error) {
			return "ok", nil
		},
	}
}

func TestRegistry_RegisterGetList(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(echoSpec("b")))
	require.NoError(t, r.Register(echoSpec("a")))

	spec, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", spec.Name)

	assert.Equal(t, []string{"a", "b"}, r.List())
	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("missing"))
}

func TestRegistry_RegisterConflict(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(echoSpec("dup")))
	err := r.Register(echoSpec("dup"))
	assert.ErrorIs(t, err, registry.ErrConflict)
}

func TestRegistry_GetNotFound(t *testing.T) {
	r := registry.New()
	_, err := r.Get("missing")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestRegistry_Clear(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(echoSpec("a")))
	r.Clear()
	assert.Empty(t, r.List())
}

func TestRegisterBuiltins_CurrentTime(t *testing.T) {
	r := registry.New()
	require.NoError(t, registry.RegisterBuiltins(r))

	spec, err := r.Get("current_time")
	require.NoError(t, err)

	out, err := spec.Func(context.Background(), &registry.Frame{Params: spec.ParamsType})
	require.NoError(t, err)
	result, ok := out.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "UTC", result["timezone"])
}
