package kvstore

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/appdev-aems/portal-api/pkg/bus"
	appErrors "github.com/appdev-aems/portal-api/pkg/errors"
)

const (
	keyPrefix      = "user_"
	probeKey       = "__storage_probe__"
	changeTopic    = "kv."
	changePatterns = changeTopic + "*"
)

// ChangeHandler receives the decoded new value when another instance
// mutates a key in the current namespace. raw is nil when the key was
// removed.
type ChangeHandler func(raw json.RawMessage)

type listenerEntry struct {
	id int
	fn ChangeHandler
}

// Store persists per-user session data under namespaced keys
// ("user_{id}_{key}") with JSON serialization. Writes are announced on the
// bus so other instances holding the same namespace can follow along;
// the store ignores its own announcements.
//
// A throwaway write/delete probes the backend at construction. When the
// probe fails every operation degrades to defaults and no-ops instead of
// failing the caller.
type Store struct {
	backend Backend
	bus     bus.Bus
	origin  string
	logger  *zap.Logger

	mu        sync.RWMutex
	userID    string
	available bool
	listeners map[string][]listenerEntry
	nextID    int
	unsub     func()
}

// New constructs a Store and probes the backend for availability.
func New(ctx context.Context, backend Backend, b bus.Bus, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		backend:   backend,
		bus:       b,
		origin:    uuid.NewString(),
		logger:    logger,
		listeners: make(map[string][]listenerEntry),
	}

	s.available = s.probe(ctx)
	if !s.available {
		logger.Warn("key-value storage unavailable, persistence disabled")
	}

	if b != nil {
		s.unsub = b.Subscribe(changePatterns, s.handleChange)
	}
	return s
}

func (s *Store) probe(ctx context.Context) bool {
	if s.backend == nil {
		return false
	}
	if err := s.backend.Set(ctx, probeKey, "ok"); err != nil {
		return false
	}
	if err := s.backend.Del(ctx, probeKey); err != nil {
		return false
	}
	return true
}

// Available reports whether the backend passed the startup probe.
func (s *Store) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

// SetCurrentUser scopes subsequent operations to the given user.
func (s *Store) SetCurrentUser(id string) error {
	if id == "" {
		return appErrors.ErrInvalidUserID
	}
	s.mu.Lock()
	s.userID = id
	s.mu.Unlock()
	return nil
}

// CurrentUser returns the namespace owner, empty when unbound.
func (s *Store) CurrentUser() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Store) namespacedKey(dataKey string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.userID == "" {
		return "", appErrors.ErrNoActiveUser
	}
	return keyPrefix + s.userID + "_" + dataKey, nil
}

// Save serializes value and writes it under the current user's namespace.
// Failures are logged and returned; they never panic.
func (s *Store) Save(ctx context.Context, dataKey string, value interface{}) error {
	if !s.Available() {
		s.logger.Warn("storage unavailable, value not persisted", zap.String("key", dataKey))
		return appErrors.ErrStorageUnavailable
	}
	key, err := s.namespacedKey(dataKey)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("failed to serialize value", zap.String("key", dataKey), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to serialize value")
	}
	if err := s.backend.Set(ctx, key, string(raw)); err != nil {
		s.logger.Error("failed to save value", zap.String("key", dataKey), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to save value")
	}
	s.announce(ctx, key, raw)
	return nil
}

// Get deserializes the stored value into dest. It returns ErrCacheMiss when
// the key is absent, storage is unavailable or the stored payload is
// corrupt; callers keep their default in that case.
func (s *Store) Get(ctx context.Context, dataKey string, dest interface{}) error {
	if !s.Available() {
		return appErrors.ErrCacheMiss
	}
	key, err := s.namespacedKey(dataKey)
	if err != nil {
		return err
	}
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Error("failed to read value", zap.String("key", dataKey), zap.Error(err))
		return appErrors.ErrCacheMiss
	}
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.logger.Error("corrupt stored value", zap.String("key", dataKey), zap.Error(err))
		return appErrors.ErrCacheMiss
	}
	return nil
}

// Remove deletes one namespaced key.
func (s *Store) Remove(ctx context.Context, dataKey string) error {
	if !s.Available() {
		return appErrors.ErrStorageUnavailable
	}
	key, err := s.namespacedKey(dataKey)
	if err != nil {
		return err
	}
	if err := s.backend.Del(ctx, key); err != nil {
		s.logger.Error("failed to remove value", zap.String("key", dataKey), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to remove value")
	}
	s.announce(ctx, key, nil)
	return nil
}

// Has reports whether a key exists in the current namespace.
func (s *Store) Has(ctx context.Context, dataKey string) bool {
	if !s.Available() {
		return false
	}
	key, err := s.namespacedKey(dataKey)
	if err != nil {
		return false
	}
	_, ok, err := s.backend.Get(ctx, key)
	return err == nil && ok
}

// Keys lists the current user's data keys with the namespace stripped.
func (s *Store) Keys(ctx context.Context) []string {
	prefix, err := s.namespacePrefix()
	if err != nil || !s.Available() {
		return nil
	}
	full, err := s.backend.Keys(ctx, prefix)
	if err != nil {
		s.logger.Error("failed to list keys", zap.Error(err))
		return nil
	}
	keys := make([]string, 0, len(full))
	for _, k := range full {
		keys = append(keys, strings.TrimPrefix(k, prefix))
	}
	return keys
}

// UsageSize sums key and value byte lengths across the current namespace.
func (s *Store) UsageSize(ctx context.Context) int {
	prefix, err := s.namespacePrefix()
	if err != nil || !s.Available() {
		return 0
	}
	full, err := s.backend.Keys(ctx, prefix)
	if err != nil {
		return 0
	}
	size := 0
	for _, k := range full {
		v, ok, err := s.backend.Get(ctx, k)
		if err != nil || !ok {
			continue
		}
		size += len(k) + len(v)
	}
	return size
}

// ClearUserData removes every key under the current user's namespace and
// nothing else.
func (s *Store) ClearUserData(ctx context.Context) error {
	prefix, err := s.namespacePrefix()
	if err != nil {
		return err
	}
	if !s.Available() {
		return appErrors.ErrStorageUnavailable
	}
	full, err := s.backend.Keys(ctx, prefix)
	if err != nil {
		s.logger.Error("failed to list keys for clear", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to clear user data")
	}
	if len(full) == 0 {
		return nil
	}
	if err := s.backend.Del(ctx, full...); err != nil {
		s.logger.Error("failed to clear user data", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to clear user data")
	}
	return nil
}

// OnChange registers a handler fired when another instance mutates dataKey
// within the current namespace. Returns an unsubscribe function.
func (s *Store) OnChange(dataKey string, fn ChangeHandler) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[dataKey] = append(s.listeners[dataKey], listenerEntry{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		entries := s.listeners[dataKey]
		for i, e := range entries {
			if e.id == id {
				s.listeners[dataKey] = append(entries[:i], entries[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
	}
}

// Close detaches the bus subscription.
func (s *Store) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}

func (s *Store) namespacePrefix() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.userID == "" {
		return "", appErrors.ErrNoActiveUser
	}
	return keyPrefix + s.userID + "_", nil
}

func (s *Store) announce(ctx context.Context, fullKey string, raw []byte) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, changeTopic+fullKey, s.origin, raw); err != nil {
		s.logger.Warn("failed to announce change", zap.String("key", fullKey), zap.Error(err))
	}
}

func (s *Store) handleChange(msg bus.Message) {
	if msg.Origin == s.origin {
		return
	}
	fullKey := strings.TrimPrefix(msg.Topic, changeTopic)

	prefix, err := s.namespacePrefix()
	if err != nil || !strings.HasPrefix(fullKey, prefix) {
		return
	}
	dataKey := strings.TrimPrefix(fullKey, prefix)

	s.mu.RLock()
	entries := make([]listenerEntry, len(s.listeners[dataKey]))
	copy(entries, s.listeners[dataKey])
	s.mu.RUnlock()

	var raw json.RawMessage
	if len(msg.Payload) > 0 {
		raw = json.RawMessage(msg.Payload)
	}
	for _, e := range entries {
		e.fn(raw)
	}
}
