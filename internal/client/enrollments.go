package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/appdev-aems/portal-api/internal/models"
)

type enrollmentDTO struct {
	EnrollmentID   int64  `json:"enrollmentId"`
	StudentID      int64  `json:"studentId"`
	CourseID       int64  `json:"courseId"`
	Status         string `json:"status"`
	Semester       string `json:"semester,omitempty"`
	EnrollmentDate string `json:"enrollmentDate,omitempty"`
}

// EnrollmentInput is the payload for enrollment create/update.
type EnrollmentInput struct {
	StudentID      int64  `json:"studentId"`
	CourseID       int64  `json:"courseId"`
	Status         string `json:"status"`
	Semester       string `json:"semester,omitempty"`
	EnrollmentDate string `json:"enrollmentDate,omitempty"`
}

func (d enrollmentDTO) toModel() models.Enrollment {
	return models.Enrollment{
		ID:             strconv.FormatInt(d.EnrollmentID, 10),
		StudentID:      strconv.FormatInt(d.StudentID, 10),
		CourseID:       strconv.FormatInt(d.CourseID, 10),
		Status:         models.EnrollmentStatus(d.Status),
		Semester:       d.Semester,
		EnrollmentDate: d.EnrollmentDate,
	}
}

// ListEnrollments returns every enrollment the registrar knows about.
func (c *Registrar) ListEnrollments(ctx context.Context) ([]models.Enrollment, error) {
	var dtos []enrollmentDTO
	if err := c.do(ctx, http.MethodGet, "/enrollments", nil, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]models.Enrollment, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toModel())
	}
	return out, nil
}

// CreateEnrollment mirrors a local enrollment to the registrar.
func (c *Registrar) CreateEnrollment(ctx context.Context, in EnrollmentInput) (models.Enrollment, error) {
	var dto enrollmentDTO
	if err := c.do(ctx, http.MethodPost, "/enrollments", nil, in, &dto); err != nil {
		return models.Enrollment{}, err
	}
	return dto.toModel(), nil
}

// UpdateEnrollment transitions an enrollment's status (pending ->
// enrolled/dropped).
func (c *Registrar) UpdateEnrollment(ctx context.Context, id string, in EnrollmentInput) (models.Enrollment, error) {
	var dto enrollmentDTO
	if err := c.do(ctx, http.MethodPut, "/enrollments/"+id, nil, in, &dto); err != nil {
		return models.Enrollment{}, err
	}
	return dto.toModel(), nil
}
