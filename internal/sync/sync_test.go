package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/appdev-aems/portal-api/internal/kvstore"
	"github.com/appdev-aems/portal-api/internal/models"
	"github.com/appdev-aems/portal-api/pkg/bus"
	appErrors "github.com/appdev-aems/portal-api/pkg/errors"
)

func snapshot(id, status string) models.StudentSync {
	return models.StudentSync{
		StudentID:   id,
		Name:        "Student " + id,
		Program:     "Computer Science",
		Semester:    "1st semester",
		CourseCount: 3,
		Status:      status,
		UpdatedAt:   time.Now().UTC(),
	}
}

func TestPublishWritesBucketAndAnnounces(t *testing.T) {
	backend := kvstore.NewMemoryBackend()
	b := bus.NewMemory()
	br := NewBroadcaster(backend, b, zap.NewNop())
	ctx := context.Background()

	var topics []string
	b.Subscribe(StudentTopicPrefix+"*", func(msg bus.Message) {
		topics = append(topics, msg.Topic)
	})

	require.NoError(t, br.Publish(ctx, snapshot("7", models.SyncStatusPending)))

	entries, err := backend.HGetAll(ctx, SyncBucket)
	require.NoError(t, err)
	assert.Contains(t, entries, "7")
	assert.Equal(t, []string{StudentTopicPrefix + "7"}, topics)
}

func TestPublishRejectsEmptyStudentID(t *testing.T) {
	br := NewBroadcaster(kvstore.NewMemoryBackend(), bus.NewMemory(), zap.NewNop())
	err := br.Publish(context.Background(), models.StudentSync{})
	assert.ErrorIs(t, err, appErrors.ErrInvalidUserID)
}

func TestWatcherSeedsFromBucket(t *testing.T) {
	backend := kvstore.NewMemoryBackend()
	b := bus.NewMemory()
	br := NewBroadcaster(backend, b, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, br.Publish(ctx, snapshot("7", models.SyncStatusPending)))

	w := NewWatcher(ctx, backend, b, zap.NewNop())
	defer w.Close()

	snap, ok := w.Snapshot("7")
	require.True(t, ok)
	assert.Equal(t, models.SyncStatusPending, snap.Status)
}

func TestWatcherFollowsAnnouncements(t *testing.T) {
	backend := kvstore.NewMemoryBackend()
	b := bus.NewMemory()
	ctx := context.Background()

	w := NewWatcher(ctx, backend, b, zap.NewNop())
	defer w.Close()
	_, ok := w.Snapshot("7")
	require.False(t, ok)

	br := NewBroadcaster(backend, b, zap.NewNop())
	require.NoError(t, br.Publish(ctx, snapshot("7", models.SyncStatusRegistered)))

	snap, ok := w.Snapshot("7")
	require.True(t, ok)
	assert.Equal(t, models.SyncStatusRegistered, snap.Status)
	assert.Len(t, w.Snapshots(), 1)
}

func TestWatcherLastWriteWinsNeverRegresses(t *testing.T) {
	backend := kvstore.NewMemoryBackend()
	b := bus.NewMemory()
	ctx := context.Background()

	w := NewWatcher(ctx, backend, b, zap.NewNop())
	defer w.Close()
	br := NewBroadcaster(backend, b, zap.NewNop())

	newer := snapshot("7", models.SyncStatusRegistered)
	older := snapshot("7", models.SyncStatusPending)
	older.UpdatedAt = newer.UpdatedAt.Add(-time.Minute)

	require.NoError(t, br.Publish(ctx, newer))
	require.NoError(t, br.Publish(ctx, older))

	snap, ok := w.Snapshot("7")
	require.True(t, ok)
	assert.Equal(t, models.SyncStatusRegistered, snap.Status, "stale announcement ignored")
}

func TestApprovalsRoundTrip(t *testing.T) {
	backend := kvstore.NewMemoryBackend()
	b := bus.NewMemory()
	ctx := context.Background()

	w := NewWatcher(ctx, backend, b, zap.NewNop())
	defer w.Close()
	br := NewBroadcaster(backend, b, zap.NewNop())

	assert.False(t, w.Approved("7"))
	require.NoError(t, br.RecordApproval(ctx, Approval{StudentID: "7", ApprovedBy: "42"}))
	assert.True(t, w.Approved("7"))

	ap := w.Approvals()["7"]
	assert.Equal(t, "42", ap.ApprovedBy)
	assert.False(t, ap.ApprovedAt.IsZero())
}

func TestWatcherRefreshReplacesView(t *testing.T) {
	backend := kvstore.NewMemoryBackend()
	b := bus.NewMemory()
	ctx := context.Background()

	w := NewWatcher(ctx, backend, b, zap.NewNop())
	defer w.Close()

	// Write around the bus, as another process without bus delivery would.
	br := NewBroadcaster(backend, bus.NewMemory(), zap.NewNop())
	require.NoError(t, br.Publish(ctx, snapshot("9", models.SyncStatusPending)))
	_, ok := w.Snapshot("9")
	require.False(t, ok, "no bus delivery yet")

	w.Refresh(ctx)
	_, ok = w.Snapshot("9")
	assert.True(t, ok, "poller picks up missed writes")
}
