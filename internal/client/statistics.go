package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/appdev-aems/portal-api/internal/models"
)

// FacultyStatistics fetches the aggregate dashboard counters for a semester.
func (c *Registrar) FacultyStatistics(ctx context.Context, semester string) (models.EnrollmentStats, error) {
	q := url.Values{}
	if semester != "" {
		q.Set("semester", semester)
	}
	var out models.EnrollmentStats
	err := c.do(ctx, http.MethodGet, "/statistics/faculty", q, nil, &out)
	return out, err
}

// EnrollmentTrends returns the raw chart series the registrar computes.
func (c *Registrar) EnrollmentTrends(ctx context.Context, semester string) (map[string]interface{}, error) {
	return c.chart(ctx, "/statistics/enrollment-trends", semester)
}

// StudentDemographics returns student population breakdowns.
func (c *Registrar) StudentDemographics(ctx context.Context, semester string) (map[string]interface{}, error) {
	return c.chart(ctx, "/statistics/student-demographics", semester)
}

// CourseCapacity returns per-course fill rates.
func (c *Registrar) CourseCapacity(ctx context.Context, semester string) (map[string]interface{}, error) {
	return c.chart(ctx, "/statistics/course-capacity", semester)
}

// ProgramStatistics returns per-program enrollment counts.
func (c *Registrar) ProgramStatistics(ctx context.Context, semester string) (map[string]interface{}, error) {
	return c.chart(ctx, "/statistics/program-statistics", semester)
}

func (c *Registrar) chart(ctx context.Context, path, semester string) (map[string]interface{}, error) {
	q := url.Values{}
	if semester != "" {
		q.Set("semester", semester)
	}
	var out map[string]interface{}
	if err := c.do(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
