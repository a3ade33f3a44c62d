package session

import (
	"context"
	stdsync "sync"
)

// Registry maps user ids to their managers for the HTTP layer, creating
// one on first login. Each manager gets its own store-independent
// notification center but shares the store, registrar, broadcaster and
// queue.
type Registry struct {
	opts Options

	mu       stdsync.Mutex
	managers map[string]*Manager
	observe  func(count int)
}

// NewRegistry builds an empty registry around shared collaborators.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:     opts,
		managers: make(map[string]*Manager),
	}
}

// SetObserver installs a live session-count callback, used for metrics.
// Call before the registry is shared.
func (r *Registry) SetObserver(fn func(count int)) {
	r.observe = fn
}

func (r *Registry) observedLocked() {
	if r.observe != nil {
		r.observe(len(r.managers))
	}
}

// Login returns the user's manager, creating and binding it when absent.
func (r *Registry) Login(ctx context.Context, userID string) (*Manager, error) {
	r.mu.Lock()
	mgr, ok := r.managers[userID]
	if !ok {
		opts := r.opts
		opts.Center = nil // each session gets its own log
		if opts.StoreFactory != nil {
			opts.Store = opts.StoreFactory(ctx)
		}
		mgr = NewManager(opts)
		r.managers[userID] = mgr
		r.observedLocked()
	}
	r.mu.Unlock()

	if err := mgr.Login(ctx, userID); err != nil {
		return nil, err
	}
	return mgr, nil
}

// Get returns the manager bound to userID, nil when none exists.
func (r *Registry) Get(userID string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.managers[userID]
}

// Logout tears down the user's manager.
func (r *Registry) Logout(ctx context.Context, userID string, clearStoredData bool) error {
	r.mu.Lock()
	mgr, ok := r.managers[userID]
	if ok {
		delete(r.managers, userID)
		r.observedLocked()
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}
	defer func() {
		mgr.Close()
		if r.opts.StoreFactory != nil {
			mgr.store.Close()
		}
	}()
	return mgr.Logout(ctx, clearStoredData)
}

// Close tears down every manager.
func (r *Registry) Close() {
	r.mu.Lock()
	managers := r.managers
	r.managers = make(map[string]*Manager)
	r.observedLocked()
	r.mu.Unlock()
	for _, mgr := range managers {
		mgr.Close()
	}
}
