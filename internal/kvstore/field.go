package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	appErrors "github.com/appdev-aems/portal-api/pkg/errors"
)

// Field binds a single value to one namespaced key: it restores the stored
// value at construction, mirrors every Set back to the store, and applies
// changes observed from other instances. When no user is bound it degrades
// to plain in-memory state with a logged warning.
type Field[T any] struct {
	store   *Store
	key     string
	initial T
	logger  *zap.Logger

	mu      sync.RWMutex
	value   T
	loaded  bool
	persist bool
	unsub   func()
}

// NewField restores the current value for key (or initial when absent) and
// starts following external changes.
func NewField[T any](ctx context.Context, store *Store, key string, initial T, logger *zap.Logger) *Field[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Field[T]{store: store, key: key, initial: initial, logger: logger, value: initial}

	if store == nil || store.CurrentUser() == "" {
		logger.Warn("no active user, field state will not persist", zap.String("key", key))
		f.loaded = true
		return f
	}
	f.persist = true

	var stored T
	err := store.Get(ctx, key, &stored)
	switch {
	case err == nil:
		f.value = stored
	case errors.Is(err, appErrors.ErrCacheMiss):
		// keep initial
	default:
		logger.Warn("failed to restore field", zap.String("key", key), zap.Error(err))
	}
	f.loaded = true

	f.unsub = store.OnChange(key, f.applyExternal)
	return f
}

// Get returns the current value.
func (f *Field[T]) Get() T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value
}

// Loaded reports whether the initial restore has completed.
func (f *Field[T]) Loaded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loaded
}

// Set updates the value and mirrors it to the store when persisting.
func (f *Field[T]) Set(ctx context.Context, v T) {
	f.mu.Lock()
	f.value = v
	persist := f.persist
	f.mu.Unlock()

	if !persist {
		return
	}
	if err := f.store.Save(ctx, f.key, v); err != nil {
		f.logger.Warn("failed to persist field", zap.String("key", f.key), zap.Error(err))
	}
}

// Close stops following external changes.
func (f *Field[T]) Close() {
	if f.unsub != nil {
		f.unsub()
	}
}

func (f *Field[T]) applyExternal(raw json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if raw == nil {
		f.value = f.initial
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		f.logger.Warn("ignoring malformed external change", zap.String("key", f.key), zap.Error(err))
		return
	}
	f.value = v
}
