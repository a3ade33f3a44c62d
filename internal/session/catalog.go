package session

import (
	"context"
	"sort"

	"github.com/appdev-aems/portal-api/internal/client"
	"github.com/appdev-aems/portal-api/internal/models"
	"github.com/appdev-aems/portal-api/internal/schedule"
)

// Courses returns the full catalog with conflict flags applied.
func (m *Manager) Courses() []models.Course {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flagLocked(m.catalog)
}

// FilteredCourses returns the catalog narrowed to the active department.
// An empty department selects everything.
func (m *Manager) FilteredCourses() []models.Course {
	dept := m.Department()
	m.mu.RLock()
	defer m.mu.RUnlock()
	if dept == "" {
		return m.flagLocked(m.catalog)
	}
	var filtered []models.Course
	for _, c := range m.catalog {
		if models.DepartmentForCode(c.Code) == dept {
			filtered = append(filtered, c)
		}
	}
	return m.flagLocked(filtered)
}

// Departments lists the distinct department labels present in the
// catalog, sorted.
func (m *Manager) Departments() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, c := range m.catalog {
		label := models.DepartmentForCode(c.Code)
		if _, ok := seen[label]; ok || label == "" {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// SetDepartment stores the active department filter through its field
// binding. Before login the call is a no-op.
func (m *Manager) SetDepartment(ctx context.Context, dept string) {
	m.mu.RLock()
	field := m.dept
	m.mu.RUnlock()
	if field == nil {
		return
	}
	field.Set(ctx, dept)
}

// Department returns the active department filter.
func (m *Manager) Department() string {
	m.mu.RLock()
	field := m.dept
	m.mu.RUnlock()
	if field == nil {
		return ""
	}
	return field.Get()
}

// Billing totals tuition over the union of reserved and enrolled courses.
func (m *Manager) Billing() models.Billing {
	m.mu.RLock()
	defer m.mu.RUnlock()
	units := 0
	for _, c := range m.activeLocked() {
		units += c.Units
	}
	return models.Billing{
		Units:   units,
		PerUnit: m.perUnit,
		Total:   units * m.perUnit,
	}
}

// ActiveCourses returns the union of reserved and enrolled courses with
// conflict flags applied.
func (m *Manager) ActiveCourses() []models.Course {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flagLocked(m.activeLocked())
}

// Schedule expands the active selection into per-day meeting intervals.
// Courses without a parseable schedule contribute nothing.
func (m *Manager) Schedule() []schedule.Interval {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []schedule.Interval
	for _, c := range m.activeLocked() {
		out = append(out, schedule.Intervals(c)...)
	}
	return out
}

// Conflicts returns the ids of courses whose schedules overlap within the
// active selection.
func (m *Manager) Conflicts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.conflicts))
	for id := range m.conflicts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CreateCourse adds a catalog entry through the registrar. Unlike the
// enrollment mirror this is an explicit CRUD call, so failures propagate.
func (m *Manager) CreateCourse(ctx context.Context, in client.CourseInput) (models.Course, error) {
	course, err := m.registrar.CreateCourse(ctx, in)
	if err != nil {
		return models.Course{}, err
	}
	m.mu.Lock()
	m.catalog = append(m.catalog, course)
	m.recomputeLocked()
	m.mu.Unlock()
	return course, nil
}

// UpdateCourse replaces a catalog entry through the registrar.
func (m *Manager) UpdateCourse(ctx context.Context, id string, in client.CourseInput) (models.Course, error) {
	course, err := m.registrar.UpdateCourse(ctx, id, in)
	if err != nil {
		return models.Course{}, err
	}
	m.mu.Lock()
	for i := range m.catalog {
		if m.catalog[i].ID == id {
			m.catalog[i] = course
			break
		}
	}
	m.recomputeLocked()
	m.mu.Unlock()
	return course, nil
}

// DeleteCourse removes a catalog entry through the registrar. The course
// is also dropped from the local selection sets.
func (m *Manager) DeleteCourse(ctx context.Context, id string) error {
	if err := m.registrar.DeleteCourse(ctx, id); err != nil {
		return err
	}
	m.mu.Lock()
	kept := m.catalog[:0]
	for _, c := range m.catalog {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	m.catalog = kept
	m.enrolled = remove(m.enrolled, id)
	m.reserved = remove(m.reserved, id)
	m.recomputeLocked()
	m.mu.Unlock()
	m.persistSelection(ctx)
	return nil
}

// flagLocked copies courses with the Conflict flag set from the current
// conflict set.
func (m *Manager) flagLocked(courses []models.Course) []models.Course {
	out := make([]models.Course, len(courses))
	for i, c := range courses {
		_, c.Conflict = m.conflicts[c.ID]
		out[i] = c
	}
	return out
}
