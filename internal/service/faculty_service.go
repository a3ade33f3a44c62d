package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	stdsync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/appdev-aems/portal-api/internal/client"
	"github.com/appdev-aems/portal-api/internal/models"
	syncpkg "github.com/appdev-aems/portal-api/internal/sync"
	appErrors "github.com/appdev-aems/portal-api/pkg/errors"
	"github.com/appdev-aems/portal-api/pkg/export"
)

type facultyRegistrarClient interface {
	ListStudents(ctx context.Context) ([]models.StudentProfile, error)
	ListEnrollments(ctx context.Context) ([]models.Enrollment, error)
	ListCourses(ctx context.Context) ([]models.Course, error)
	UpdateEnrollment(ctx context.Context, id string, in client.EnrollmentInput) (models.Enrollment, error)
	FacultyStatistics(ctx context.Context, semester string) (models.EnrollmentStats, error)
	EnrollmentTrends(ctx context.Context, semester string) (map[string]interface{}, error)
	StudentDemographics(ctx context.Context, semester string) (map[string]interface{}, error)
	CourseCapacity(ctx context.Context, semester string) (map[string]interface{}, error)
	ProgramStatistics(ctx context.Context, semester string) (map[string]interface{}, error)
}

// Enrollment statuses the registrar reports that count as registered.
var registeredStatuses = map[string]struct{}{
	"registered": {},
	"enrolled":   {},
	"approved":   {},
	"submitted":  {},
}

// FacultyConfig tunes the dashboard poller and proxy cache.
type FacultyConfig struct {
	PollInterval time.Duration
	CacheTTL     time.Duration
	ApproverID   string
}

// FacultyService assembles the staff dashboard: student records merged
// from registrar data and live sync snapshots, approval handling, chart
// proxies and report export.
type FacultyService struct {
	registrar   facultyRegistrarClient
	watcher     *syncpkg.Watcher
	broadcaster *syncpkg.Broadcaster
	logger      *zap.Logger
	config      FacultyConfig

	csv *export.CSVExporter
	pdf *export.PDFExporter

	cacheMu stdsync.Mutex
	cache   map[string]cachedChart

	stopOnce stdsync.Once
	stop     chan struct{}
}

type cachedChart struct {
	value   map[string]interface{}
	expires time.Time
}

// NewFacultyService constructs a FacultyService instance.
func NewFacultyService(registrar facultyRegistrarClient, watcher *syncpkg.Watcher, broadcaster *syncpkg.Broadcaster, logger *zap.Logger, config FacultyConfig) *FacultyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = time.Minute
	}
	return &FacultyService{
		registrar:   registrar,
		watcher:     watcher,
		broadcaster: broadcaster,
		logger:      logger,
		config:      config,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		cache:       make(map[string]cachedChart),
		stop:        make(chan struct{}),
	}
}

// StartPoller refreshes the sync view on a fixed interval until the
// context is cancelled or Stop is called. Run it in its own goroutine.
func (s *FacultyService) StartPoller(ctx context.Context) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.watcher.Refresh(ctx)
		}
	}
}

// Stop halts the poller.
func (s *FacultyService) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Records builds the merged student enrollment records, newest activity
// first. Students with a recorded approval are filtered out.
func (s *FacultyService) Records(ctx context.Context, semester string) ([]models.StudentRecord, error) {
	students, err := s.registrar.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.registrar.ListEnrollments(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.registrar.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	courseByID := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}
	byStudent := make(map[string][]models.Enrollment)
	for _, e := range enrollments {
		byStudent[e.StudentID] = append(byStudent[e.StudentID], e)
	}

	records := make([]models.StudentRecord, 0, len(students))
	for _, st := range students {
		if s.watcher.Approved(st.StudentID) {
			continue
		}
		rec := s.buildRecord(st, byStudent[st.StudentID], courseByID)
		if semester != "" && rec.Semester != "" && !strings.EqualFold(rec.Semester, semester) {
			continue
		}
		// A live snapshot from the student's own session wins over the
		// registrar-derived view.
		if snap, ok := s.watcher.Snapshot(st.StudentID); ok {
			if snap.Name != "" {
				rec.Name = snap.Name
			}
			if snap.Program != "" {
				rec.Program = snap.Program
			}
			if snap.Semester != "" {
				rec.Semester = snap.Semester
			}
			rec.CourseCount = snap.CourseCount
			rec.Status = snap.Status
			rec.Date = snap.UpdatedAt.Format("2006-01-02")
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date > records[j].Date })
	return records, nil
}

// buildRecord derives one student's record from registrar data alone.
func (s *FacultyService) buildRecord(st models.StudentProfile, enrollments []models.Enrollment, courseByID map[string]models.Course) models.StudentRecord {
	rec := models.StudentRecord{
		StudentID: st.StudentID,
		Name:      st.FullName,
		Program:   st.Program,
		Semester:  normalizeSemester(st.Semester),
		Status:    models.SyncStatusPending,
	}
	seen := make(map[string]struct{})
	for _, e := range enrollments {
		status := strings.ToLower(string(e.Status))
		if status == "dropped" || status == "cancelled" {
			continue
		}
		if _, dup := seen[e.CourseID]; !dup {
			seen[e.CourseID] = struct{}{}
			rec.CourseCount++
		}
		if _, ok := registeredStatuses[status]; ok {
			rec.Status = models.SyncStatusRegistered
		}
		if rec.Semester == "" {
			rec.Semester = normalizeSemester(e.Semester)
		}
		if e.EnrollmentDate > rec.Date {
			rec.Date = e.EnrollmentDate
		}
		if rec.Program == "" {
			if c, ok := courseByID[e.CourseID]; ok {
				rec.Program = models.DepartmentForCode(c.Code)
			}
		}
	}
	return rec
}

// Stats counts the dashboard tiles over the merged records.
func (s *FacultyService) Stats(ctx context.Context, semester string) (models.EnrollmentStats, error) {
	records, err := s.Records(ctx, semester)
	if err != nil {
		return models.EnrollmentStats{}, err
	}
	today := time.Now().UTC().Format("2006-01-02")
	stats := models.EnrollmentStats{TotalStudents: len(records)}
	for _, rec := range records {
		if rec.Status == models.SyncStatusPending {
			stats.PendingEnrollments++
			stats.RequiresAttention++
		}
	}
	for _, ap := range s.watcher.Approvals() {
		if ap.ApprovedAt.UTC().Format("2006-01-02") == today {
			stats.ApprovedToday++
		}
	}
	return stats, nil
}

// Approve records a faculty sign-off and mirrors the status upstream.
// The approval flag and broadcast are authoritative; the registrar
// update is best effort and only logged on failure.
func (s *FacultyService) Approve(ctx context.Context, studentID string) error {
	if studentID == "" {
		return appErrors.ErrInvalidUserID
	}
	ap := syncpkg.Approval{
		StudentID:  studentID,
		ApprovedBy: s.config.ApproverID,
		ApprovedAt: time.Now().UTC(),
	}
	if err := s.broadcaster.RecordApproval(ctx, ap); err != nil {
		return err
	}

	enrollments, err := s.registrar.ListEnrollments(ctx)
	if err != nil {
		s.logger.Warn("approval recorded but enrollment lookup failed",
			zap.String("studentId", studentID), zap.Error(err))
		return nil
	}
	for _, e := range enrollments {
		if e.StudentID != studentID || e.Status == models.EnrollmentStatusDropped {
			continue
		}
		sid, err1 := strconv.ParseInt(e.StudentID, 10, 64)
		cid, err2 := strconv.ParseInt(e.CourseID, 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if _, err := s.registrar.UpdateEnrollment(ctx, e.ID, client.EnrollmentInput{
			StudentID: sid,
			CourseID:  cid,
			Status:    "approved",
			Semester:  e.Semester,
		}); err != nil {
			s.logger.Warn("approval recorded but registrar update failed",
				zap.String("enrollmentId", e.ID), zap.Error(err))
		}
	}
	return nil
}

// Statistics proxies the registrar's aggregate counters.
func (s *FacultyService) Statistics(ctx context.Context, semester string) (models.EnrollmentStats, error) {
	return s.registrar.FacultyStatistics(ctx, semester)
}

// Chart names accepted by ChartData.
const (
	ChartEnrollmentTrends    = "enrollment-trends"
	ChartStudentDemographics = "student-demographics"
	ChartCourseCapacity      = "course-capacity"
	ChartProgramStatistics   = "program-statistics"
)

// ChartData proxies one of the registrar's chart endpoints through a
// short-TTL cache keyed by chart and semester.
func (s *FacultyService) ChartData(ctx context.Context, chart, semester string) (map[string]interface{}, error) {
	key := chart + "|" + semester
	s.cacheMu.Lock()
	if entry, ok := s.cache[key]; ok && time.Now().Before(entry.expires) {
		s.cacheMu.Unlock()
		return entry.value, nil
	}
	s.cacheMu.Unlock()

	var (
		data map[string]interface{}
		err  error
	)
	switch chart {
	case ChartEnrollmentTrends:
		data, err = s.registrar.EnrollmentTrends(ctx, semester)
	case ChartStudentDemographics:
		data, err = s.registrar.StudentDemographics(ctx, semester)
	case ChartCourseCapacity:
		data, err = s.registrar.CourseCapacity(ctx, semester)
	case ChartProgramStatistics:
		data, err = s.registrar.ProgramStatistics(ctx, semester)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown chart")
	}
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	s.cache[key] = cachedChart{value: data, expires: time.Now().Add(s.config.CacheTTL)}
	s.cacheMu.Unlock()
	return data, nil
}

// ExportRecords renders the merged records as CSV or PDF.
func (s *FacultyService) ExportRecords(ctx context.Context, semester, format string) ([]byte, string, error) {
	records, err := s.Records(ctx, semester)
	if err != nil {
		return nil, "", err
	}
	dataset := export.Dataset{
		Headers: []string{"Student ID", "Name", "Program", "Semester", "Courses", "Date", "Status"},
	}
	for _, rec := range records {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student ID": rec.StudentID,
			"Name":       rec.Name,
			"Program":    rec.Program,
			"Semester":   rec.Semester,
			"Courses":    strconv.Itoa(rec.CourseCount),
			"Date":       rec.Date,
			"Status":     rec.Status,
		})
	}
	switch format {
	case "csv", "":
		payload, err := s.csv.Render(dataset)
		return payload, "text/csv", err
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Enrollment Records")
		return payload, "application/pdf", err
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

// normalizeSemester folds the registrar's free-form semester labels into
// the portal's canonical set.
func normalizeSemester(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "1st", "first", "1st semester", "first semester":
		return "1st semester"
	case "2", "2nd", "second", "2nd semester", "second semester":
		return "2nd semester"
	case "summer", "midyear":
		return "summer"
	case "":
		return ""
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}
