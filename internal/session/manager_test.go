package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/appdev-aems/portal-api/internal/client"
	"github.com/appdev-aems/portal-api/internal/kvstore"
	"github.com/appdev-aems/portal-api/internal/models"
	syncpkg "github.com/appdev-aems/portal-api/internal/sync"
	"github.com/appdev-aems/portal-api/pkg/bus"
	appErrors "github.com/appdev-aems/portal-api/pkg/errors"
	"github.com/appdev-aems/portal-api/pkg/jobs"
)

type mockCatalog struct {
	courses []models.Course
	listErr error
	created []client.CourseInput
	deleted []string
}

func (m *mockCatalog) ListCourses(ctx context.Context) ([]models.Course, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]models.Course(nil), m.courses...), nil
}

func (m *mockCatalog) CreateCourse(ctx context.Context, in client.CourseInput) (models.Course, error) {
	m.created = append(m.created, in)
	c := models.Course{ID: "100", Code: in.CourseCode, Title: in.Title, Units: in.Credits, Schedule: in.Schedule}
	m.courses = append(m.courses, c)
	return c, nil
}

func (m *mockCatalog) UpdateCourse(ctx context.Context, id string, in client.CourseInput) (models.Course, error) {
	return models.Course{ID: id, Code: in.CourseCode, Title: in.Title, Units: in.Credits, Schedule: in.Schedule}, nil
}

func (m *mockCatalog) DeleteCourse(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockDispatcher struct {
	jobs []jobs.Job
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	m.jobs = append(m.jobs, job)
	return nil
}

func testCatalog() *mockCatalog {
	return &mockCatalog{courses: []models.Course{
		{ID: "1", Code: "CS101", Title: "Intro to Computing", Schedule: "MWF 08:00-09:30", Units: 3},
		{ID: "2", Code: "CS201", Title: "Data Structures", Schedule: "MWF 09:00-10:30", Units: 3},
		{ID: "3", Code: "MATH101", Title: "Calculus I", Schedule: "TTh 08:00-09:30", Units: 3},
		{ID: "4", Code: "ENG101", Title: "Composition", Schedule: "TTh 10:00-11:30", Units: 3},
	}}
}

type env struct {
	backend    *kvstore.MemoryBackend
	bus        *bus.Memory
	catalog    *mockCatalog
	dispatcher *mockDispatcher
	mgr        *Manager
}

func newEnv(t *testing.T) *env {
	t.Helper()
	backend := kvstore.NewMemoryBackend()
	b := bus.NewMemory()
	catalog := testCatalog()
	dispatcher := &mockDispatcher{}
	mgr := NewManager(Options{
		Store:       kvstore.New(context.Background(), backend, b, zap.NewNop()),
		Registrar:   catalog,
		Broadcaster: syncpkg.NewBroadcaster(backend, b, zap.NewNop()),
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
		PerUnitRate: 500,
	})
	return &env{backend: backend, bus: b, catalog: catalog, dispatcher: dispatcher, mgr: mgr}
}

func TestLoginRequiresUserID(t *testing.T) {
	e := newEnv(t)
	assert.ErrorIs(t, e.mgr.Login(context.Background(), ""), appErrors.ErrInvalidUserID)
}

func TestLoginToleratesCatalogFailure(t *testing.T) {
	e := newEnv(t)
	e.catalog.listErr = appErrors.ErrUpstream
	require.NoError(t, e.mgr.Login(context.Background(), "7"))
	assert.Empty(t, e.mgr.Courses())
}

func TestCatalogRefillsAfterFailedLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.catalog.listErr = appErrors.ErrUpstream
	require.NoError(t, e.mgr.Login(ctx, "7"))

	// Still down: enrollment keeps failing, nothing is recorded.
	assert.ErrorIs(t, e.mgr.EnrollCourse(ctx, "1"), appErrors.ErrNotFound)
	assert.Empty(t, e.mgr.EnrolledIDs())

	// Registrar recovers; the next enrollment reloads the catalog.
	e.catalog.listErr = nil
	require.NoError(t, e.mgr.EnrollCourse(ctx, "1"))
	assert.Equal(t, []string{"1"}, e.mgr.EnrolledIDs())
	assert.Len(t, e.mgr.Courses(), 4)

	reserved, err := e.mgr.ToggleReserve(ctx, "3")
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestEnrollIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))

	require.NoError(t, e.mgr.EnrollCourse(ctx, "1"))
	require.NoError(t, e.mgr.EnrollCourse(ctx, "1"))

	assert.Equal(t, []string{"1"}, e.mgr.EnrolledIDs())
	assert.Len(t, e.dispatcher.jobs, 1, "repeat enroll mirrors nothing")
	assert.Len(t, e.mgr.Center().List(models.RoleStudent), 1)
}

func TestEnrollUnknownCourse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))

	err := e.mgr.EnrollCourse(ctx, "999")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollMovesCourseOutOfReserved(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))

	reserved, err := e.mgr.ToggleReserve(ctx, "1")
	require.NoError(t, err)
	require.True(t, reserved)

	require.NoError(t, e.mgr.EnrollCourse(ctx, "1"))
	assert.Empty(t, e.mgr.ReservedIDs())
	assert.Equal(t, []string{"1"}, e.mgr.EnrolledIDs())
}

func TestToggleReserveIsAnInvolution(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))

	on, err := e.mgr.ToggleReserve(ctx, "3")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"3"}, e.mgr.ReservedIDs())

	off, err := e.mgr.ToggleReserve(ctx, "3")
	require.NoError(t, err)
	assert.False(t, off)
	assert.Empty(t, e.mgr.ReservedIDs())

	notes := e.mgr.Center().List(models.RoleStudent)
	require.Len(t, notes, 2)
	assert.Contains(t, notes[0].Text, "Reservation cancelled")
	assert.Contains(t, notes[1].Text, "Reserved")
}

func TestDropIsNoOpWhenNotEnrolled(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))

	require.NoError(t, e.mgr.DropCourse(ctx, "1"))
	assert.Empty(t, e.dispatcher.jobs)
	assert.Empty(t, e.mgr.Center().List(models.RoleStudent))
}

func TestSubmitIsAOneWayLatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))
	require.NoError(t, e.mgr.EnrollCourse(ctx, "1"))

	require.NoError(t, e.mgr.SubmitRegistration(ctx))
	require.NoError(t, e.mgr.SubmitRegistration(ctx))
	assert.True(t, e.mgr.Submitted())

	// Exactly one terminal notification.
	submitted := 0
	for _, n := range e.mgr.Center().List(models.RoleStudent) {
		if n.Type == models.NotificationSuccess {
			submitted++
		}
	}
	assert.Equal(t, 1, submitted)

	// Mutations are rejected after the latch.
	assert.ErrorIs(t, e.mgr.EnrollCourse(ctx, "2"), appErrors.ErrRegistrationLocked)
	_, err := e.mgr.ToggleReserve(ctx, "3")
	assert.ErrorIs(t, err, appErrors.ErrRegistrationLocked)

	// Dropping an enrolled course is still allowed.
	require.NoError(t, e.mgr.DropCourse(ctx, "1"))
}

func TestConflictDetectionOverSelection(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))

	require.NoError(t, e.mgr.EnrollCourse(ctx, "1"))
	assert.Empty(t, e.mgr.Conflicts())

	// CS201 overlaps CS101 on MWF 09:00-09:30.
	require.NoError(t, e.mgr.EnrollCourse(ctx, "2"))
	assert.Equal(t, []string{"1", "2"}, e.mgr.Conflicts())

	// Conflict flags surface on the catalog view.
	for _, c := range e.mgr.Courses() {
		if c.ID == "1" || c.ID == "2" {
			assert.True(t, c.Conflict, c.Code)
		} else {
			assert.False(t, c.Conflict, c.Code)
		}
	}

	require.NoError(t, e.mgr.DropCourse(ctx, "2"))
	assert.Empty(t, e.mgr.Conflicts())
}

func TestBillingOverReservedAndEnrolled(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))

	require.NoError(t, e.mgr.EnrollCourse(ctx, "1"))
	_, err := e.mgr.ToggleReserve(ctx, "3")
	require.NoError(t, err)

	bill := e.mgr.Billing()
	assert.Equal(t, 6, bill.Units)
	assert.Equal(t, 500, bill.PerUnit)
	assert.Equal(t, 3000, bill.Total)
}

func TestLogoutWithoutClearRestoresOnRelogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))
	require.NoError(t, e.mgr.EnrollCourse(ctx, "1"))
	require.NoError(t, e.mgr.SubmitRegistration(ctx))

	require.NoError(t, e.mgr.Logout(ctx, false))
	assert.Empty(t, e.mgr.EnrolledIDs())

	require.NoError(t, e.mgr.Login(ctx, "7"))
	assert.Equal(t, []string{"1"}, e.mgr.EnrolledIDs())
	assert.True(t, e.mgr.Submitted())
}

func TestLogoutWithClearPurgesNamespace(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))
	require.NoError(t, e.mgr.EnrollCourse(ctx, "1"))

	require.NoError(t, e.mgr.Logout(ctx, true))
	require.NoError(t, e.mgr.Login(ctx, "7"))
	assert.Empty(t, e.mgr.EnrolledIDs())
}

func TestUserSwitchResetsState(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))
	require.NoError(t, e.mgr.EnrollCourse(ctx, "1"))

	require.NoError(t, e.mgr.Login(ctx, "8"))
	assert.Empty(t, e.mgr.EnrolledIDs(), "state never leaks across users")

	require.NoError(t, e.mgr.Login(ctx, "7"))
	assert.Equal(t, []string{"1"}, e.mgr.EnrolledIDs())
}

func TestProfileProgramLockedAfterSubmit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))

	require.NoError(t, e.mgr.SetProfile(ctx, func(p models.StudentProfile) models.StudentProfile {
		p.FullName = "Ada Lovelace"
		p.Program = "Computer Science"
		return p
	}))
	require.NoError(t, e.mgr.SubmitRegistration(ctx))

	err := e.mgr.SetProfile(ctx, func(p models.StudentProfile) models.StudentProfile {
		p.Program = "Mathematics"
		return p
	})
	assert.ErrorIs(t, err, appErrors.ErrRegistrationLocked)

	// Non-program fields still editable.
	require.NoError(t, e.mgr.SetProfile(ctx, func(p models.StudentProfile) models.StudentProfile {
		p.Phone = "555-0101"
		return p
	}))
	assert.Equal(t, "Computer Science", e.mgr.Profile().Program)
}

func TestDepartmentsAndFiltering(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))

	assert.Equal(t, []string{"Computer Science", "English", "Mathematics"}, e.mgr.Departments())

	e.mgr.SetDepartment(ctx, "Computer Science")
	filtered := e.mgr.FilteredCourses()
	require.Len(t, filtered, 2)
	for _, c := range filtered {
		assert.Contains(t, []string{"CS101", "CS201"}, c.Code)
	}

	e.mgr.SetDepartment(ctx, "")
	assert.Len(t, e.mgr.FilteredCourses(), 4)
}

func TestDepartmentFollowsOtherInstance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))

	other := NewManager(Options{
		Store:       kvstore.New(ctx, e.backend, e.bus, zap.NewNop()),
		Registrar:   e.catalog,
		Broadcaster: syncpkg.NewBroadcaster(e.backend, e.bus, zap.NewNop()),
		Dispatcher:  &mockDispatcher{},
		Logger:      zap.NewNop(),
	})
	require.NoError(t, other.Login(ctx, "7"))

	other.SetDepartment(ctx, "Mathematics")
	assert.Equal(t, "Mathematics", e.mgr.Department(), "filter observed from the other instance")
	assert.Len(t, e.mgr.FilteredCourses(), 1)

	// The stored value survives a fresh login.
	require.NoError(t, e.mgr.Logout(ctx, false))
	require.NoError(t, e.mgr.Login(ctx, "7"))
	assert.Equal(t, "Mathematics", e.mgr.Department())
}

func TestExternalSelectionChangeApplies(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))

	// A second manager on the same namespace, as another instance would
	// hold for the same user in a different tab.
	other := NewManager(Options{
		Store:       kvstore.New(ctx, e.backend, e.bus, zap.NewNop()),
		Registrar:   e.catalog,
		Broadcaster: syncpkg.NewBroadcaster(e.backend, e.bus, zap.NewNop()),
		Dispatcher:  &mockDispatcher{},
		Logger:      zap.NewNop(),
	})
	require.NoError(t, other.Login(ctx, "7"))

	require.NoError(t, other.EnrollCourse(ctx, "1"))
	assert.Equal(t, []string{"1"}, e.mgr.EnrolledIDs(), "change observed from the other instance")
	assert.Empty(t, e.mgr.Conflicts())

	require.NoError(t, other.EnrollCourse(ctx, "2"))
	assert.Equal(t, []string{"1", "2"}, e.mgr.Conflicts(), "conflicts recomputed on external change")
}

func TestBroadcastSnapshotWritesSharedBucket(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))
	require.NoError(t, e.mgr.EnrollCourse(ctx, "1"))
	require.NoError(t, e.mgr.SubmitRegistration(ctx))

	entries, err := e.backend.HGetAll(ctx, syncpkg.SyncBucket)
	require.NoError(t, err)
	require.Contains(t, entries, "7")
	assert.Contains(t, entries["7"], models.SyncStatusRegistered)
}

func TestAuditTrailCapped(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))

	for i := 0; i < models.AuditLimit; i++ {
		_, err := e.mgr.ToggleReserve(ctx, "3")
		require.NoError(t, err)
	}
	require.NoError(t, e.mgr.EnrollCourse(ctx, "1"))

	audit := e.mgr.Audit()
	assert.Len(t, audit, models.AuditLimit)
	assert.Equal(t, "enroll", audit[0].Action, "newest first")
}

func TestDeleteCoursePrunesSelection(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.mgr.Login(ctx, "7"))
	require.NoError(t, e.mgr.EnrollCourse(ctx, "1"))

	require.NoError(t, e.mgr.DeleteCourse(ctx, "1"))
	assert.Empty(t, e.mgr.EnrolledIDs())
	assert.Len(t, e.mgr.Courses(), 3)
	assert.Equal(t, []string{"1"}, e.catalog.deleted)
}
