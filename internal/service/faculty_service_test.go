package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/appdev-aems/portal-api/internal/client"
	"github.com/appdev-aems/portal-api/internal/kvstore"
	"github.com/appdev-aems/portal-api/internal/models"
	syncpkg "github.com/appdev-aems/portal-api/internal/sync"
	"github.com/appdev-aems/portal-api/pkg/bus"
)

type mockFacultyRegistrar struct {
	students    []models.StudentProfile
	enrollments []models.Enrollment
	courses     []models.Course
	updated     []string
	chartCalls  int
}

func (m *mockFacultyRegistrar) ListStudents(ctx context.Context) ([]models.StudentProfile, error) {
	return m.students, nil
}

func (m *mockFacultyRegistrar) ListEnrollments(ctx context.Context) ([]models.Enrollment, error) {
	return m.enrollments, nil
}

func (m *mockFacultyRegistrar) ListCourses(ctx context.Context) ([]models.Course, error) {
	return m.courses, nil
}

func (m *mockFacultyRegistrar) UpdateEnrollment(ctx context.Context, id string, in client.EnrollmentInput) (models.Enrollment, error) {
	m.updated = append(m.updated, id)
	return models.Enrollment{ID: id, Status: models.EnrollmentStatus(in.Status)}, nil
}

func (m *mockFacultyRegistrar) FacultyStatistics(ctx context.Context, semester string) (models.EnrollmentStats, error) {
	return models.EnrollmentStats{TotalStudents: 10}, nil
}

func (m *mockFacultyRegistrar) EnrollmentTrends(ctx context.Context, semester string) (map[string]interface{}, error) {
	m.chartCalls++
	return map[string]interface{}{"series": []interface{}{1, 2, 3}}, nil
}

func (m *mockFacultyRegistrar) StudentDemographics(ctx context.Context, semester string) (map[string]interface{}, error) {
	m.chartCalls++
	return map[string]interface{}{}, nil
}

func (m *mockFacultyRegistrar) CourseCapacity(ctx context.Context, semester string) (map[string]interface{}, error) {
	m.chartCalls++
	return map[string]interface{}{}, nil
}

func (m *mockFacultyRegistrar) ProgramStatistics(ctx context.Context, semester string) (map[string]interface{}, error) {
	m.chartCalls++
	return map[string]interface{}{}, nil
}

func facultyFixture() *mockFacultyRegistrar {
	return &mockFacultyRegistrar{
		students: []models.StudentProfile{
			{StudentID: "7", FullName: "Ada Lovelace", Program: "Computer Science", Semester: "1st"},
			{StudentID: "8", FullName: "Grace Hopper"},
			{StudentID: "9", FullName: "Alan Turing", Program: "Mathematics", Semester: "2nd"},
		},
		enrollments: []models.Enrollment{
			{ID: "1", StudentID: "7", CourseID: "101", Status: "enrolled", EnrollmentDate: "2026-08-20"},
			{ID: "2", StudentID: "7", CourseID: "101", Status: "enrolled", EnrollmentDate: "2026-08-21"},
			{ID: "3", StudentID: "7", CourseID: "102", Status: "dropped"},
			{ID: "4", StudentID: "8", CourseID: "103", Status: "pending", Semester: "1st semester", EnrollmentDate: "2026-08-22"},
		},
		courses: []models.Course{
			{ID: "101", Code: "CS101"},
			{ID: "102", Code: "CS201"},
			{ID: "103", Code: "MATH101"},
		},
	}
}

func newFacultyEnv(t *testing.T, registrar *mockFacultyRegistrar) (*FacultyService, *syncpkg.Broadcaster, *syncpkg.Watcher) {
	t.Helper()
	backend := kvstore.NewMemoryBackend()
	b := bus.NewMemory()
	broadcaster := syncpkg.NewBroadcaster(backend, b, zap.NewNop())
	watcher := syncpkg.NewWatcher(context.Background(), backend, b, zap.NewNop())
	t.Cleanup(watcher.Close)
	svc := NewFacultyService(registrar, watcher, broadcaster, zap.NewNop(), FacultyConfig{
		PollInterval: time.Minute,
		CacheTTL:     time.Minute,
		ApproverID:   "42",
	})
	t.Cleanup(svc.Stop)
	return svc, broadcaster, watcher
}

func recordByID(records []models.StudentRecord, id string) (models.StudentRecord, bool) {
	for _, r := range records {
		if r.StudentID == id {
			return r, true
		}
	}
	return models.StudentRecord{}, false
}

func TestRecordsDedupAndStatus(t *testing.T) {
	registrar := facultyFixture()
	svc, _, _ := newFacultyEnv(t, registrar)

	records, err := svc.Records(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, records, 3)

	ada, ok := recordByID(records, "7")
	require.True(t, ok)
	assert.Equal(t, 1, ada.CourseCount, "duplicate and dropped enrollments excluded")
	assert.Equal(t, models.SyncStatusRegistered, ada.Status)
	assert.Equal(t, "1st semester", ada.Semester)
	assert.Equal(t, "2026-08-21", ada.Date, "latest enrollment date")

	grace, ok := recordByID(records, "8")
	require.True(t, ok)
	assert.Equal(t, models.SyncStatusPending, grace.Status)
	assert.Equal(t, "Mathematics", grace.Program, "program derived from course code")

	alan, ok := recordByID(records, "9")
	require.True(t, ok)
	assert.Zero(t, alan.CourseCount)
}

func TestRecordsMergeLiveSnapshots(t *testing.T) {
	registrar := facultyFixture()
	svc, broadcaster, _ := newFacultyEnv(t, registrar)
	ctx := context.Background()

	require.NoError(t, broadcaster.Publish(ctx, models.StudentSync{
		StudentID:   "8",
		Name:        "Grace B. Hopper",
		Program:     "Information Technology",
		CourseCount: 5,
		Status:      models.SyncStatusRegistered,
		UpdatedAt:   time.Now().UTC(),
	}))

	records, err := svc.Records(ctx, "")
	require.NoError(t, err)
	grace, ok := recordByID(records, "8")
	require.True(t, ok)
	assert.Equal(t, "Grace B. Hopper", grace.Name)
	assert.Equal(t, 5, grace.CourseCount)
	assert.Equal(t, models.SyncStatusRegistered, grace.Status)
}

func TestApproveFiltersStudentAndMirrorsStatus(t *testing.T) {
	registrar := facultyFixture()
	svc, _, watcher := newFacultyEnv(t, registrar)
	ctx := context.Background()

	require.NoError(t, svc.Approve(ctx, "7"))
	assert.True(t, watcher.Approved("7"))
	assert.ElementsMatch(t, []string{"1", "2"}, registrar.updated, "dropped enrollment untouched")

	records, err := svc.Records(ctx, "")
	require.NoError(t, err)
	_, ok := recordByID(records, "7")
	assert.False(t, ok, "approved students leave the queue")
}

func TestStatsCounters(t *testing.T) {
	registrar := facultyFixture()
	registrar.students = append(registrar.students,
		models.StudentProfile{StudentID: "10", FullName: "Edsger Dijkstra"})
	registrar.enrollments = append(registrar.enrollments,
		models.Enrollment{ID: "5", StudentID: "10", CourseID: "101", Status: "pending", EnrollmentDate: "2026-08-23"})
	svc, _, _ := newFacultyEnv(t, registrar)
	ctx := context.Background()

	require.NoError(t, svc.Approve(ctx, "9"))

	stats, err := svc.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalStudents)
	assert.Equal(t, 2, stats.PendingEnrollments, "both tiles count pending records")
	assert.Equal(t, 2, stats.RequiresAttention)
	assert.Equal(t, 1, stats.ApprovedToday)
}

func TestChartDataCaches(t *testing.T) {
	registrar := facultyFixture()
	svc, _, _ := newFacultyEnv(t, registrar)
	ctx := context.Background()

	_, err := svc.ChartData(ctx, ChartEnrollmentTrends, "1st semester")
	require.NoError(t, err)
	_, err = svc.ChartData(ctx, ChartEnrollmentTrends, "1st semester")
	require.NoError(t, err)
	assert.Equal(t, 1, registrar.chartCalls, "second read served from cache")

	_, err = svc.ChartData(ctx, ChartEnrollmentTrends, "2nd semester")
	require.NoError(t, err)
	assert.Equal(t, 2, registrar.chartCalls, "distinct semester is a distinct key")

	_, err = svc.ChartData(ctx, "bogus", "")
	assert.Error(t, err)
}

func TestExportRecordsCSV(t *testing.T) {
	registrar := facultyFixture()
	svc, _, _ := newFacultyEnv(t, registrar)

	payload, contentType, err := svc.ExportRecords(context.Background(), "", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "Ada Lovelace")
	assert.Contains(t, string(payload), "Student ID")

	_, _, err = svc.ExportRecords(context.Background(), "", "xlsx")
	assert.Error(t, err)
}

func TestNormalizeSemester(t *testing.T) {
	assert.Equal(t, "1st semester", normalizeSemester("1st"))
	assert.Equal(t, "1st semester", normalizeSemester("First Semester"))
	assert.Equal(t, "2nd semester", normalizeSemester("2"))
	assert.Equal(t, "summer", normalizeSemester("Midyear"))
	assert.Equal(t, "", normalizeSemester("  "))
	assert.Equal(t, "trimester 3", normalizeSemester("Trimester 3"))
}
