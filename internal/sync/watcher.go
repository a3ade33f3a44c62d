package sync

import (
	"context"
	"encoding/json"
	stdsync "sync"

	"go.uber.org/zap"

	"github.com/appdev-aems/portal-api/internal/kvstore"
	"github.com/appdev-aems/portal-api/internal/models"
	"github.com/appdev-aems/portal-api/pkg/bus"
)

// Watcher maintains a live merged view of the shared sync and approval
// buckets. It seeds from the backend and then applies bus announcements
// from any instance, including this one.
type Watcher struct {
	backend kvstore.Backend
	logger  *zap.Logger

	mu        stdsync.RWMutex
	snapshots map[string]models.StudentSync
	approvals map[string]Approval

	unsubs []func()
}

// NewWatcher seeds the view from the buckets and subscribes to updates.
// A backend read failure at startup is tolerated; the view starts empty
// and fills in from announcements.
func NewWatcher(ctx context.Context, backend kvstore.Backend, b bus.Bus, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		backend:   backend,
		logger:    logger,
		snapshots: make(map[string]models.StudentSync),
		approvals: make(map[string]Approval),
	}
	w.seed(ctx)
	w.unsubs = append(w.unsubs,
		b.Subscribe(StudentTopicPrefix+"*", w.onSnapshot),
		b.Subscribe(ApprovalTopicPrefix+"*", w.onApproval),
	)
	return w
}

func (w *Watcher) seed(ctx context.Context) {
	if entries, err := w.backend.HGetAll(ctx, SyncBucket); err != nil {
		w.logger.Warn("failed to seed sync bucket", zap.Error(err))
	} else {
		for id, raw := range entries {
			var snap models.StudentSync
			if err := json.Unmarshal([]byte(raw), &snap); err != nil {
				w.logger.Warn("discarding corrupt sync entry", zap.String("studentId", id))
				continue
			}
			w.snapshots[id] = snap
		}
	}
	if entries, err := w.backend.HGetAll(ctx, ApprovalBucket); err != nil {
		w.logger.Warn("failed to seed approval bucket", zap.Error(err))
	} else {
		for id, raw := range entries {
			var ap Approval
			if err := json.Unmarshal([]byte(raw), &ap); err != nil {
				w.logger.Warn("discarding corrupt approval entry", zap.String("studentId", id))
				continue
			}
			w.approvals[id] = ap
		}
	}
}

func (w *Watcher) onSnapshot(msg bus.Message) {
	var snap models.StudentSync
	if err := json.Unmarshal(msg.Payload, &snap); err != nil || snap.StudentID == "" {
		w.logger.Warn("discarding malformed sync announcement", zap.String("topic", msg.Topic))
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	// Last write wins, but never regress behind a newer stored snapshot.
	if cur, ok := w.snapshots[snap.StudentID]; ok && cur.UpdatedAt.After(snap.UpdatedAt) {
		return
	}
	w.snapshots[snap.StudentID] = snap
}

func (w *Watcher) onApproval(msg bus.Message) {
	var ap Approval
	if err := json.Unmarshal(msg.Payload, &ap); err != nil || ap.StudentID == "" {
		w.logger.Warn("discarding malformed approval announcement", zap.String("topic", msg.Topic))
		return
	}
	w.mu.Lock()
	w.approvals[ap.StudentID] = ap
	w.mu.Unlock()
}

// Snapshot returns the stored sync entry for a student, if any.
func (w *Watcher) Snapshot(studentID string) (models.StudentSync, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	snap, ok := w.snapshots[studentID]
	return snap, ok
}

// Snapshots returns a copy of all live snapshots keyed by student ID.
func (w *Watcher) Snapshots() map[string]models.StudentSync {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[string]models.StudentSync, len(w.snapshots))
	for id, snap := range w.snapshots {
		out[id] = snap
	}
	return out
}

// Approved reports whether a faculty approval is on record for the student.
func (w *Watcher) Approved(studentID string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.approvals[studentID]
	return ok
}

// Approvals returns a copy of all recorded approvals keyed by student ID.
func (w *Watcher) Approvals() map[string]Approval {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[string]Approval, len(w.approvals))
	for id, ap := range w.approvals {
		out[id] = ap
	}
	return out
}

// Refresh re-reads both buckets, replacing the in-memory view. Used by the
// faculty poller as a safety net against missed announcements.
func (w *Watcher) Refresh(ctx context.Context) {
	fresh := &Watcher{
		backend:   w.backend,
		logger:    w.logger,
		snapshots: make(map[string]models.StudentSync),
		approvals: make(map[string]Approval),
	}
	fresh.seed(ctx)
	w.mu.Lock()
	w.snapshots = fresh.snapshots
	w.approvals = fresh.approvals
	w.mu.Unlock()
}

// Close detaches the watcher from the bus.
func (w *Watcher) Close() {
	for _, unsub := range w.unsubs {
		unsub()
	}
	w.unsubs = nil
}
