package kvstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/appdev-aems/portal-api/pkg/bus"
	appErrors "github.com/appdev-aems/portal-api/pkg/errors"
)

type fixture struct {
	Name  string   `json:"name"`
	Units int      `json:"units"`
	Tags  []string `json:"tags"`
}

func newTestStore(t *testing.T) (*Store, *MemoryBackend, *bus.Memory) {
	t.Helper()
	backend := NewMemoryBackend()
	b := bus.NewMemory()
	s := New(context.Background(), backend, b, zap.NewNop())
	require.True(t, s.Available())
	return s, backend, b
}

func TestStoreRequiresActiveUser(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	err := s.Save(ctx, "profile", fixture{Name: "x"})
	assert.ErrorIs(t, err, appErrors.ErrNoActiveUser)

	assert.ErrorIs(t, s.SetCurrentUser(""), appErrors.ErrInvalidUserID)

	require.NoError(t, s.SetCurrentUser("7"))
	assert.Equal(t, "7", s.CurrentUser())
}

func TestStoreRoundTrip(t *testing.T) {
	s, backend, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetCurrentUser("7"))

	in := fixture{Name: "Ada", Units: 3, Tags: []string{"a", "b"}}
	require.NoError(t, s.Save(ctx, "profile", in))

	// Stored under the namespaced key.
	_, ok, err := backend.Get(ctx, "user_7_profile")
	require.NoError(t, err)
	assert.True(t, ok)

	var out fixture
	require.NoError(t, s.Get(ctx, "profile", &out))
	assert.Equal(t, in, out)
}

func TestStoreGetMissKeepsDefault(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetCurrentUser("7"))

	out := fixture{Name: "default"}
	err := s.Get(ctx, "absent", &out)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Equal(t, "default", out.Name)
}

func TestStoreCorruptValueIsAMiss(t *testing.T) {
	s, backend, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetCurrentUser("7"))
	require.NoError(t, backend.Set(ctx, "user_7_profile", "{not json"))

	var out fixture
	assert.ErrorIs(t, s.Get(ctx, "profile", &out), appErrors.ErrCacheMiss)
}

func TestStoreNamespaceIsolation(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCurrentUser("7"))
	require.NoError(t, s.Save(ctx, "ids", []string{"1", "2"}))

	require.NoError(t, s.SetCurrentUser("8"))
	var ids []string
	assert.ErrorIs(t, s.Get(ctx, "ids", &ids), appErrors.ErrCacheMiss)

	require.NoError(t, s.Save(ctx, "ids", []string{"9"}))

	// Switching back restores the first user's data untouched.
	require.NoError(t, s.SetCurrentUser("7"))
	require.NoError(t, s.Get(ctx, "ids", &ids))
	assert.Equal(t, []string{"1", "2"}, ids)
}

func TestStoreClearUserDataOnlyTouchesOwnNamespace(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCurrentUser("7"))
	require.NoError(t, s.Save(ctx, "a", 1))
	require.NoError(t, s.Save(ctx, "b", 2))

	require.NoError(t, s.SetCurrentUser("8"))
	require.NoError(t, s.Save(ctx, "a", 3))

	require.NoError(t, s.SetCurrentUser("7"))
	require.NoError(t, s.ClearUserData(ctx))
	assert.Empty(t, s.Keys(ctx))

	require.NoError(t, s.SetCurrentUser("8"))
	var v int
	require.NoError(t, s.Get(ctx, "a", &v))
	assert.Equal(t, 3, v)
}

func TestStoreKeysAndUsage(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetCurrentUser("7"))

	require.NoError(t, s.Save(ctx, "alpha", "x"))
	require.NoError(t, s.Save(ctx, "beta", "y"))

	keys := s.Keys(ctx)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, keys)
	assert.True(t, s.Has(ctx, "alpha"))
	assert.False(t, s.Has(ctx, "gamma"))
	assert.Greater(t, s.UsageSize(ctx), 0)

	require.NoError(t, s.Remove(ctx, "alpha"))
	assert.False(t, s.Has(ctx, "alpha"))
}

func TestStoreDegradesWhenBackendUnavailable(t *testing.T) {
	s := New(context.Background(), nil, bus.NewMemory(), zap.NewNop())
	ctx := context.Background()
	assert.False(t, s.Available())

	require.NoError(t, s.SetCurrentUser("7"))
	assert.ErrorIs(t, s.Save(ctx, "k", 1), appErrors.ErrStorageUnavailable)

	var v int
	assert.ErrorIs(t, s.Get(ctx, "k", &v), appErrors.ErrCacheMiss)
	assert.False(t, s.Has(ctx, "k"))
	assert.Nil(t, s.Keys(ctx))
	assert.Zero(t, s.UsageSize(ctx))
}

func TestStoreChangeNotificationsSkipOwnWrites(t *testing.T) {
	backend := NewMemoryBackend()
	b := bus.NewMemory()
	writer := New(context.Background(), backend, b, zap.NewNop())
	reader := New(context.Background(), backend, b, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, writer.SetCurrentUser("7"))
	require.NoError(t, reader.SetCurrentUser("7"))

	var writerSaw, readerSaw int
	writer.OnChange("ids", func(raw json.RawMessage) { writerSaw++ })
	reader.OnChange("ids", func(raw json.RawMessage) { readerSaw++ })

	require.NoError(t, writer.Save(ctx, "ids", []string{"1"}))

	// The memory bus delivers synchronously: the reader instance sees the
	// change, the writer ignores its own announcement.
	assert.Equal(t, 0, writerSaw)
	assert.Equal(t, 1, readerSaw)
}

func TestStoreChangeNotificationsFilterNamespace(t *testing.T) {
	backend := NewMemoryBackend()
	b := bus.NewMemory()
	writer := New(context.Background(), backend, b, zap.NewNop())
	reader := New(context.Background(), backend, b, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, writer.SetCurrentUser("7"))
	require.NoError(t, reader.SetCurrentUser("8"))

	saw := 0
	reader.OnChange("ids", func(raw json.RawMessage) { saw++ })
	require.NoError(t, writer.Save(ctx, "ids", []string{"1"}))
	assert.Zero(t, saw)
}

func TestStoreRemoveAnnouncesNil(t *testing.T) {
	backend := NewMemoryBackend()
	b := bus.NewMemory()
	writer := New(context.Background(), backend, b, zap.NewNop())
	reader := New(context.Background(), backend, b, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, writer.SetCurrentUser("7"))
	require.NoError(t, reader.SetCurrentUser("7"))
	require.NoError(t, writer.Save(ctx, "ids", []string{"1"}))

	got := json.RawMessage("sentinel")
	unsub := reader.OnChange("ids", func(raw json.RawMessage) { got = raw })
	require.NoError(t, writer.Remove(ctx, "ids"))
	assert.Nil(t, got)

	// Unsubscribed handlers stop firing.
	unsub()
	got = json.RawMessage("sentinel")
	require.NoError(t, writer.Save(ctx, "ids", []string{"2"}))
	assert.Equal(t, json.RawMessage("sentinel"), got)
}
