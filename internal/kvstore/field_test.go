package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/appdev-aems/portal-api/pkg/bus"
)

func TestFieldRestoresStoredValue(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetCurrentUser("7"))
	require.NoError(t, s.Save(ctx, "department", "Mathematics"))

	f := NewField(ctx, s, "department", "Computer Science", zap.NewNop())
	defer f.Close()
	assert.True(t, f.Loaded())
	assert.Equal(t, "Mathematics", f.Get())
}

func TestFieldFallsBackToInitial(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetCurrentUser("7"))

	f := NewField(ctx, s, "department", "Computer Science", zap.NewNop())
	defer f.Close()
	assert.Equal(t, "Computer Science", f.Get())
}

func TestFieldSetPersists(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetCurrentUser("7"))

	f := NewField(ctx, s, "ids", []string(nil), zap.NewNop())
	defer f.Close()
	f.Set(ctx, []string{"1", "2"})

	var stored []string
	require.NoError(t, s.Get(ctx, "ids", &stored))
	assert.Equal(t, []string{"1", "2"}, stored)
}

func TestFieldWithoutUserStaysInMemory(t *testing.T) {
	s, backend, _ := newTestStore(t)
	ctx := context.Background()

	f := NewField(ctx, s, "ids", []string(nil), zap.NewNop())
	defer f.Close()
	assert.True(t, f.Loaded())

	f.Set(ctx, []string{"1"})
	assert.Equal(t, []string{"1"}, f.Get())

	keys, err := backend.Keys(ctx, "user_")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFieldFollowsExternalChanges(t *testing.T) {
	backend := NewMemoryBackend()
	b := bus.NewMemory()
	ctx := context.Background()

	theirs := New(ctx, backend, b, zap.NewNop())
	ours := New(ctx, backend, b, zap.NewNop())
	require.NoError(t, theirs.SetCurrentUser("7"))
	require.NoError(t, ours.SetCurrentUser("7"))

	f := NewField(ctx, ours, "ids", []string(nil), zap.NewNop())
	defer f.Close()

	require.NoError(t, theirs.Save(ctx, "ids", []string{"42"}))
	assert.Equal(t, []string{"42"}, f.Get())

	// Removal resets to the initial value.
	require.NoError(t, theirs.Remove(ctx, "ids"))
	assert.Nil(t, f.Get())
}
