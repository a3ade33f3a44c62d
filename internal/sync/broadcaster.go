package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/appdev-aems/portal-api/internal/kvstore"
	"github.com/appdev-aems/portal-api/internal/models"
	"github.com/appdev-aems/portal-api/pkg/bus"
	apperrors "github.com/appdev-aems/portal-api/pkg/errors"
)

const (
	// SyncBucket is the shared hash holding the latest snapshot per student.
	SyncBucket = "portal:faculty_sync"
	// ApprovalBucket is the shared hash holding faculty approval flags.
	ApprovalBucket = "portal:faculty_approvals"

	// StudentTopicPrefix is the bus topic prefix for snapshot announcements.
	StudentTopicPrefix = "sync.student."
	// ApprovalTopicPrefix is the bus topic prefix for approval announcements.
	ApprovalTopicPrefix = "sync.approval."
)

// Approval records a faculty sign-off on a student's registration.
type Approval struct {
	StudentID  string    `json:"studentId"`
	ApprovedBy string    `json:"approvedBy"`
	ApprovedAt time.Time `json:"approvedAt"`
}

// Broadcaster writes student snapshots into the shared sync bucket and
// announces them so other portal instances pick up the change without
// polling. Last write wins per student.
type Broadcaster struct {
	backend kvstore.Backend
	bus     bus.Bus
	origin  string
	logger  *zap.Logger
	observe func()
}

// NewBroadcaster constructs a Broadcaster with a fresh origin identity.
func NewBroadcaster(backend kvstore.Backend, b bus.Bus, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		backend: backend,
		bus:     b,
		origin:  uuid.New().String(),
		logger:  logger,
	}
}

// Origin returns the instance identity stamped on outgoing messages.
func (br *Broadcaster) Origin() string { return br.origin }

// SetObserver installs a callback fired once per published snapshot or
// approval, used for metrics. Call before the broadcaster is shared.
func (br *Broadcaster) SetObserver(fn func()) {
	br.observe = fn
}

// Publish stores the snapshot under the student's ID and announces it.
func (br *Broadcaster) Publish(ctx context.Context, snap models.StudentSync) error {
	if snap.StudentID == "" {
		return apperrors.ErrInvalidUserID
	}
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal.Code, apperrors.ErrInternal.Status, "failed to encode sync snapshot")
	}
	if err := br.backend.HSet(ctx, SyncBucket, snap.StudentID, string(raw)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorageUnavailable.Code, apperrors.ErrStorageUnavailable.Status, "failed to write sync bucket")
	}
	if err := br.bus.Publish(ctx, StudentTopicPrefix+snap.StudentID, br.origin, raw); err != nil {
		// The bucket write already succeeded; watchers will still see the
		// snapshot on their next full read.
		br.logger.Warn("sync announce failed", zap.String("studentId", snap.StudentID), zap.Error(err))
	}
	if br.observe != nil {
		br.observe()
	}
	return nil
}

// RecordApproval stores an approval flag and announces it.
func (br *Broadcaster) RecordApproval(ctx context.Context, ap Approval) error {
	if ap.StudentID == "" {
		return apperrors.ErrInvalidUserID
	}
	if ap.ApprovedAt.IsZero() {
		ap.ApprovedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(ap)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal.Code, apperrors.ErrInternal.Status, "failed to encode approval")
	}
	if err := br.backend.HSet(ctx, ApprovalBucket, ap.StudentID, string(raw)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorageUnavailable.Code, apperrors.ErrStorageUnavailable.Status, "failed to write approval bucket")
	}
	if err := br.bus.Publish(ctx, ApprovalTopicPrefix+ap.StudentID, br.origin, raw); err != nil {
		br.logger.Warn("approval announce failed", zap.String("studentId", ap.StudentID), zap.Error(err))
	}
	if br.observe != nil {
		br.observe()
	}
	return nil
}
