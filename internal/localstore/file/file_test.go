package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naochaLuwang/daciana-cart/internal/localstore"
)

func setupStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestStorage_SetGet(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "cart/state", []byte(`{"items":[]}`)))

	got, err := s.Get(ctx, "cart/state")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"items":[]}`), got)
}

func TestStorage_Get_Missing(t *testing.T) {
	s := setupStorage(t)

	_, err := s.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, localstore.ErrNotFound)
}

func TestStorage_Set_Overwrites(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("one")))
	require.NoError(t, s.Set(ctx, "k", []byte("two")))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)
}

func TestStorage_Remove(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Remove(ctx, "k"))

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, localstore.ErrNotFound)
}

func TestStorage_Remove_AbsentKeyIsNoop(t *testing.T) {
	s := setupStorage(t)
	assert.NoError(t, s.Remove(context.Background(), "never-set"))
}

func TestStorage_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, "cart/state", []byte("persisted")))

	s2, err := New(dir)
	require.NoError(t, err)
	got, err := s2.Get(ctx, "cart/state")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}

func TestStorage_KeyWithSeparatorStaysInDir(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "../escape", []byte("v")))
	got, err := s.Get(ctx, "../escape")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}
