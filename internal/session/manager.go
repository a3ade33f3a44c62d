// Package session owns the per-user enrollment state: catalog, reserved
// and enrolled selections, profile, audit trail and the registration
// lock. Every mutation is persisted through the kvstore, mirrored to the
// registrar on a best-effort queue, and broadcast to other instances.
package session

import (
	"context"
	"encoding/json"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/appdev-aems/portal-api/internal/client"
	"github.com/appdev-aems/portal-api/internal/kvstore"
	"github.com/appdev-aems/portal-api/internal/models"
	"github.com/appdev-aems/portal-api/internal/notify"
	"github.com/appdev-aems/portal-api/internal/schedule"
	syncpkg "github.com/appdev-aems/portal-api/internal/sync"
	apperrors "github.com/appdev-aems/portal-api/pkg/errors"
	"github.com/appdev-aems/portal-api/pkg/jobs"
)

// Persisted data keys within the user's namespace.
const (
	keyProfile    = "studentProfile"
	keyEnrolled   = "enrolledIds"
	keyReserved   = "reservedIds"
	keyDepartment = "department"
	keySubmitted  = "registrationSubmitted"
	keyAudit      = "auditLog"
)

// Job types handled by the reconciler.
const (
	JobEnrollCreate  = "enrollment.create"
	JobEnrollDrop    = "enrollment.drop"
	JobProfileUpdate = "student.update"
)

// CatalogClient is the slice of the registrar client the manager needs.
type CatalogClient interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	CreateCourse(ctx context.Context, in client.CourseInput) (models.Course, error)
	UpdateCourse(ctx context.Context, id string, in client.CourseInput) (models.Course, error)
	DeleteCourse(ctx context.Context, id string) error
}

// Dispatcher enqueues best-effort reconciliation jobs.
type Dispatcher interface {
	Enqueue(job jobs.Job) error
}

// Manager holds one user's session. It is safe for concurrent use.
type Manager struct {
	store       *kvstore.Store
	registrar   CatalogClient
	broadcaster *syncpkg.Broadcaster
	dispatcher  Dispatcher
	center      *notify.Center
	logger      *zap.Logger
	perUnit     int

	mu        stdsync.RWMutex
	userID    string
	profile   models.StudentProfile
	catalog   []models.Course
	enrolled  []string
	reserved  []string
	dept      *kvstore.Field[string]
	submitted bool
	audit     []models.AuditEvent
	conflicts map[string]struct{}
	unsubs    []func()
}

// Options carries the manager's collaborators. A Store binds a single
// user namespace, so the Registry supplies a StoreFactory to mint one
// per session; standalone managers set Store directly.
type Options struct {
	Store        *kvstore.Store
	StoreFactory func(ctx context.Context) *kvstore.Store
	Registrar    CatalogClient
	Broadcaster  *syncpkg.Broadcaster
	Dispatcher   Dispatcher
	Center       *notify.Center
	Logger       *zap.Logger
	PerUnitRate  int
}

// NewManager constructs an unbound manager. Call Login before using it.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Center == nil {
		opts.Center = notify.NewCenter()
	}
	if opts.PerUnitRate <= 0 {
		opts.PerUnitRate = 500
	}
	return &Manager{
		store:       opts.Store,
		registrar:   opts.Registrar,
		broadcaster: opts.Broadcaster,
		dispatcher:  opts.Dispatcher,
		center:      opts.Center,
		logger:      opts.Logger,
		perUnit:     opts.PerUnitRate,
		conflicts:   make(map[string]struct{}),
	}
}

// Login binds the manager to a user, restores persisted state and loads
// the catalog. Switching users resets in-memory state first so nothing
// leaks between accounts. Catalog load failure is tolerated; the next
// catalog read or enrollment retries it through EnsureCatalog.
func (m *Manager) Login(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.ErrInvalidUserID
	}

	m.mu.Lock()
	if m.userID != "" && m.userID != userID {
		m.resetLocked()
	}
	m.userID = userID
	m.mu.Unlock()

	if err := m.store.SetCurrentUser(userID); err != nil {
		return err
	}
	m.restore(ctx)
	m.bindDepartment(ctx)
	m.watchStore()

	catalog, err := m.registrar.ListCourses(ctx)
	if err != nil {
		m.logger.Warn("catalog load failed, starting empty",
			zap.String("userId", userID), zap.Error(err))
		catalog = nil
	}

	m.mu.Lock()
	m.catalog = catalog
	m.recomputeLocked()
	m.mu.Unlock()

	m.broadcast(ctx)
	return nil
}

// restore seeds in-memory state from the store. A miss on any key keeps
// the default.
func (m *Manager) restore(ctx context.Context) {
	var (
		profile   models.StudentProfile
		enrolled  []string
		reserved  []string
		submitted bool
		audit     []models.AuditEvent
	)
	_ = m.store.Get(ctx, keyProfile, &profile)
	_ = m.store.Get(ctx, keyEnrolled, &enrolled)
	_ = m.store.Get(ctx, keyReserved, &reserved)
	_ = m.store.Get(ctx, keySubmitted, &submitted)
	_ = m.store.Get(ctx, keyAudit, &audit)

	m.mu.Lock()
	m.profile = profile
	m.enrolled = enrolled
	m.reserved = reserved
	m.submitted = submitted
	m.audit = audit
	m.mu.Unlock()
}

// bindDepartment mints the department filter binding for the current
// namespace. The field restores the stored value itself and follows
// changes made by other instances.
func (m *Manager) bindDepartment(ctx context.Context) {
	dept := kvstore.NewField(ctx, m.store, keyDepartment, "", m.logger)
	m.mu.Lock()
	if m.dept != nil {
		m.dept.Close()
	}
	m.dept = dept
	m.mu.Unlock()
}

// watchStore follows selection changes made by other instances sharing
// the same namespace.
func (m *Manager) watchStore() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.unsubs) > 0 {
		return
	}
	m.unsubs = append(m.unsubs,
		m.store.OnChange(keyEnrolled, func(raw json.RawMessage) { m.applyExternal(&m.enrolled, raw) }),
		m.store.OnChange(keyReserved, func(raw json.RawMessage) { m.applyExternal(&m.reserved, raw) }),
		m.store.OnChange(keySubmitted, func(raw json.RawMessage) {
			var v bool
			if raw != nil {
				if err := json.Unmarshal(raw, &v); err != nil {
					return
				}
			}
			m.mu.Lock()
			m.submitted = v
			m.mu.Unlock()
		}),
	)
}

func (m *Manager) applyExternal(target *[]string, raw json.RawMessage) {
	var ids []string
	if raw != nil {
		if err := json.Unmarshal(raw, &ids); err != nil {
			m.logger.Warn("discarding malformed selection change")
			return
		}
	}
	m.mu.Lock()
	*target = ids
	m.recomputeLocked()
	m.mu.Unlock()
}

// EnsureCatalog retries the catalog load when login left it empty, so a
// registrar blip at login does not strand the session without courses.
// A populated catalog is never reloaded here.
func (m *Manager) EnsureCatalog(ctx context.Context) {
	m.mu.RLock()
	empty := len(m.catalog) == 0
	m.mu.RUnlock()
	if !empty {
		return
	}
	catalog, err := m.registrar.ListCourses(ctx)
	if err != nil {
		m.logger.Warn("catalog reload failed", zap.Error(err))
		return
	}
	m.mu.Lock()
	if len(m.catalog) == 0 {
		m.catalog = catalog
		m.recomputeLocked()
	}
	m.mu.Unlock()
}

// EnrollCourse moves a course into the enrolled set. Already-enrolled
// courses are a silent no-op; a submitted registration rejects the call.
func (m *Manager) EnrollCourse(ctx context.Context, courseID string) error {
	m.EnsureCatalog(ctx)
	m.mu.Lock()
	if m.submitted {
		m.mu.Unlock()
		return apperrors.ErrRegistrationLocked
	}
	course, ok := m.courseLocked(courseID)
	if !ok {
		m.mu.Unlock()
		return apperrors.Clone(apperrors.ErrNotFound, "course not found")
	}
	if contains(m.enrolled, courseID) {
		m.mu.Unlock()
		return nil
	}
	m.reserved = remove(m.reserved, courseID)
	m.enrolled = append(m.enrolled, courseID)
	m.recomputeLocked()
	m.appendAuditLocked("enroll", courseID)
	profile := m.profile
	m.mu.Unlock()

	m.center.Add("Enrolled: "+course.Code+" "+course.Title, models.NotificationEnroll, courseID, models.RoleStudent)
	m.persistSelection(ctx)
	m.persistAudit(ctx)
	m.mirror(jobs.Job{
		ID:   uuid.NewString(),
		Type: JobEnrollCreate,
		Payload: EnrollmentMirror{
			StudentID: m.UserID(),
			CourseID:  courseID,
			Semester:  profile.Semester,
		},
	})
	m.broadcast(ctx)
	return nil
}

// DropCourse removes a course from the enrolled set. Not-enrolled courses
// are a silent no-op.
func (m *Manager) DropCourse(ctx context.Context, courseID string) error {
	m.mu.Lock()
	if !contains(m.enrolled, courseID) {
		m.mu.Unlock()
		return nil
	}
	course, _ := m.courseLocked(courseID)
	m.enrolled = remove(m.enrolled, courseID)
	m.recomputeLocked()
	m.appendAuditLocked("drop", courseID)
	m.mu.Unlock()

	label := course.Code
	if label == "" {
		label = courseID
	}
	m.center.Add("Dropped: "+label, models.NotificationDrop, courseID, models.RoleStudent)
	m.persistSelection(ctx)
	m.persistAudit(ctx)
	m.mirror(jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobEnrollDrop,
		Payload: EnrollmentMirror{StudentID: m.UserID(), CourseID: courseID},
	})
	m.broadcast(ctx)
	return nil
}

// ToggleReserve flips a course's reserved flag and reports the new state.
// Enrolled courses cannot be reserved; a submitted registration rejects
// the call.
func (m *Manager) ToggleReserve(ctx context.Context, courseID string) (bool, error) {
	m.EnsureCatalog(ctx)
	m.mu.Lock()
	if m.submitted {
		m.mu.Unlock()
		return false, apperrors.ErrRegistrationLocked
	}
	course, ok := m.courseLocked(courseID)
	if !ok {
		m.mu.Unlock()
		return false, apperrors.Clone(apperrors.ErrNotFound, "course not found")
	}
	if contains(m.enrolled, courseID) {
		m.mu.Unlock()
		return false, apperrors.Clone(apperrors.ErrConflict, "course already enrolled")
	}
	reservedNow := !contains(m.reserved, courseID)
	if reservedNow {
		m.reserved = append(m.reserved, courseID)
	} else {
		m.reserved = remove(m.reserved, courseID)
	}
	m.recomputeLocked()
	action := "reserve"
	if !reservedNow {
		action = "unreserve"
	}
	m.appendAuditLocked(action, courseID)
	m.mu.Unlock()

	if reservedNow {
		m.center.Add("Reserved: "+course.Code, models.NotificationReserve, courseID, models.RoleStudent)
	} else {
		m.center.Add("Reservation cancelled: "+course.Code, models.NotificationCancel, courseID, models.RoleStudent)
	}
	m.persistSelection(ctx)
	m.persistAudit(ctx)
	return reservedNow, nil
}

// SubmitRegistration latches the registration lock. Repeat calls are a
// no-op and emit no second notification.
func (m *Manager) SubmitRegistration(ctx context.Context) error {
	m.mu.Lock()
	if m.submitted {
		m.mu.Unlock()
		return nil
	}
	m.submitted = true
	m.appendAuditLocked("submit", "")
	m.mu.Unlock()

	m.center.Add("Registration submitted", models.NotificationSuccess, "", models.RoleStudent)
	if err := m.store.Save(ctx, keySubmitted, true); err != nil {
		m.logger.Warn("failed to persist registration lock", zap.Error(err))
	}
	m.persistAudit(ctx)
	m.broadcast(ctx)
	return nil
}

// SetProfile applies a pure updater to the profile. Program changes are
// rejected once the registration is submitted. The change is persisted,
// mirrored to the registrar and broadcast when the identity fields moved.
func (m *Manager) SetProfile(ctx context.Context, update func(models.StudentProfile) models.StudentProfile) error {
	m.mu.Lock()
	before := m.profile
	after := update(before)
	if m.submitted && after.Program != before.Program {
		m.mu.Unlock()
		return apperrors.Clone(apperrors.ErrRegistrationLocked, "program cannot change after submission")
	}
	m.profile = after
	m.mu.Unlock()

	if err := m.store.Save(ctx, keyProfile, after); err != nil {
		m.logger.Warn("failed to persist profile", zap.Error(err))
	}
	first, last := client.SplitFullName(after.FullName)
	m.mirror(jobs.Job{
		ID:   uuid.NewString(),
		Type: JobProfileUpdate,
		Payload: ProfileMirror{
			StudentID: m.UserID(),
			Update: client.StudentUpdate{
				Firstname: first,
				Lastname:  last,
				Email:     after.Email,
				Phone:     after.Phone,
				Program:   after.Program,
				Semester:  after.Semester,
				YearLevel: after.YearLevel,
			},
		},
	})
	if after.FullName != before.FullName || after.Program != before.Program ||
		after.StudentID != before.StudentID || after.Semester != before.Semester {
		m.broadcast(ctx)
	}
	return nil
}

// Profile returns the current profile.
func (m *Manager) Profile() models.StudentProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile
}

// Submitted reports whether the registration lock is latched.
func (m *Manager) Submitted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.submitted
}

// UserID returns the bound user, empty when logged out.
func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userID
}

// EnrolledIDs returns the enrolled course ids in selection order.
func (m *Manager) EnrolledIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.enrolled...)
}

// ReservedIDs returns the reserved course ids in selection order.
func (m *Manager) ReservedIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.reserved...)
}

// Audit returns the audit trail, newest first.
func (m *Manager) Audit() []models.AuditEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.AuditEvent(nil), m.audit...)
}

// Center exposes the notification log for the HTTP layer.
func (m *Manager) Center() *notify.Center { return m.center }

// Logout resets in-memory state and optionally purges the user's
// persisted namespace.
func (m *Manager) Logout(ctx context.Context, clearStoredData bool) error {
	if clearStoredData {
		if err := m.store.ClearUserData(ctx); err != nil {
			m.logger.Warn("failed to clear stored data on logout", zap.Error(err))
		}
	}
	m.mu.Lock()
	m.resetLocked()
	m.userID = ""
	m.mu.Unlock()
	m.center.Reset()
	return nil
}

// Close detaches store subscriptions, the department binding included.
func (m *Manager) Close() {
	m.mu.Lock()
	unsubs := m.unsubs
	m.unsubs = nil
	dept := m.dept
	m.dept = nil
	m.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
	if dept != nil {
		dept.Close()
	}
}

func (m *Manager) resetLocked() {
	m.profile = models.StudentProfile{}
	m.catalog = nil
	m.enrolled = nil
	m.reserved = nil
	if m.dept != nil {
		m.dept.Close()
		m.dept = nil
	}
	m.submitted = false
	m.audit = nil
	m.conflicts = make(map[string]struct{})
}

func (m *Manager) appendAuditLocked(action, courseID string) {
	event := models.AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		CourseID:  courseID,
		StudentID: m.userID,
	}
	m.audit = append([]models.AuditEvent{event}, m.audit...)
	if len(m.audit) > models.AuditLimit {
		m.audit = m.audit[:models.AuditLimit]
	}
}

// recomputeLocked rebuilds the conflict set over the active selection.
func (m *Manager) recomputeLocked() {
	m.conflicts = schedule.DetectConflicts(m.activeLocked())
}

// activeLocked returns the courses in reserved or enrolled state.
func (m *Manager) activeLocked() []models.Course {
	var active []models.Course
	for _, c := range m.catalog {
		if contains(m.enrolled, c.ID) || contains(m.reserved, c.ID) {
			active = append(active, c)
		}
	}
	return active
}

func (m *Manager) courseLocked(id string) (models.Course, bool) {
	for _, c := range m.catalog {
		if c.ID == id {
			return c, true
		}
	}
	return models.Course{}, false
}

func (m *Manager) persistSelection(ctx context.Context) {
	m.mu.RLock()
	enrolled := append([]string(nil), m.enrolled...)
	reserved := append([]string(nil), m.reserved...)
	m.mu.RUnlock()
	if err := m.store.Save(ctx, keyEnrolled, enrolled); err != nil {
		m.logger.Warn("failed to persist enrolled ids", zap.Error(err))
	}
	if err := m.store.Save(ctx, keyReserved, reserved); err != nil {
		m.logger.Warn("failed to persist reserved ids", zap.Error(err))
	}
}

func (m *Manager) persistAudit(ctx context.Context) {
	m.mu.RLock()
	audit := append([]models.AuditEvent(nil), m.audit...)
	m.mu.RUnlock()
	if err := m.store.Save(ctx, keyAudit, audit); err != nil {
		m.logger.Warn("failed to persist audit trail", zap.Error(err))
	}
}

// mirror hands a reconciliation job to the queue. Dispatch failure is a
// warning only; local state already moved.
func (m *Manager) mirror(job jobs.Job) {
	if m.dispatcher == nil {
		return
	}
	if err := m.dispatcher.Enqueue(job); err != nil {
		m.logger.Warn("failed to enqueue reconciliation",
			zap.String("type", job.Type), zap.Error(err))
	}
}

// broadcast publishes the current sync snapshot.
func (m *Manager) broadcast(ctx context.Context) {
	if m.broadcaster == nil {
		return
	}
	m.mu.RLock()
	snap := models.StudentSync{
		StudentID:   m.userID,
		Name:        m.profile.FullName,
		Program:     m.profile.Program,
		Semester:    m.profile.Semester,
		CourseCount: len(m.enrolled),
		Status:      models.SyncStatusPending,
		UpdatedAt:   time.Now().UTC(),
	}
	if m.submitted {
		snap.Status = models.SyncStatusRegistered
	}
	m.mu.RUnlock()
	if snap.StudentID == "" {
		return
	}
	if err := m.broadcaster.Publish(ctx, snap); err != nil {
		m.logger.Warn("failed to broadcast sync snapshot", zap.Error(err))
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
