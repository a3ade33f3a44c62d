package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/appdev-aems/portal-api/internal/models"
)

// courseDTO is the registrar's course wire shape (numeric identifiers).
type courseDTO struct {
	CourseID       int64  `json:"courseId"`
	CourseCode     string `json:"courseCode"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Credits        int    `json:"credits"`
	InstructorID   int64  `json:"instructorId,omitempty"`
	Instructor     string `json:"instructor,omitempty"`
	Schedule       string `json:"schedule,omitempty"`
	TotalCapacity  int    `json:"totalCapacity,omitempty"`
	AvailableSlots int    `json:"availableSlots,omitempty"`
	Semester       string `json:"semester,omitempty"`
}

// CourseInput is the payload for course create/update.
type CourseInput struct {
	CourseCode   string `json:"courseCode"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Credits      int    `json:"credits"`
	InstructorID int64  `json:"instructorId,omitempty"`
	Schedule     string `json:"schedule,omitempty"`
	Semester     string `json:"semester,omitempty"`
}

func (d courseDTO) toModel() models.Course {
	instructor := d.Instructor
	if instructor == "" && d.InstructorID != 0 {
		instructor = strconv.FormatInt(d.InstructorID, 10)
	}
	return models.Course{
		ID:         strconv.FormatInt(d.CourseID, 10),
		Code:       d.CourseCode,
		Title:      d.Title,
		Subtitle:   d.Description,
		Schedule:   d.Schedule,
		Instructor: instructor,
		Units:      d.Credits,
		Semester:   d.Semester,
	}
}

// ListCourses fetches the full catalog.
func (c *Registrar) ListCourses(ctx context.Context) ([]models.Course, error) {
	var dtos []courseDTO
	if err := c.do(ctx, http.MethodGet, "/courses", nil, nil, &dtos); err != nil {
		return nil, err
	}
	courses := make([]models.Course, 0, len(dtos))
	for _, d := range dtos {
		courses = append(courses, d.toModel())
	}
	return courses, nil
}

// CreateCourse creates a catalog entry and returns the stored course.
func (c *Registrar) CreateCourse(ctx context.Context, in CourseInput) (models.Course, error) {
	var dto courseDTO
	if err := c.do(ctx, http.MethodPost, "/courses", nil, in, &dto); err != nil {
		return models.Course{}, err
	}
	return dto.toModel(), nil
}

// UpdateCourse replaces a catalog entry.
func (c *Registrar) UpdateCourse(ctx context.Context, id string, in CourseInput) (models.Course, error) {
	var dto courseDTO
	if err := c.do(ctx, http.MethodPut, "/courses/"+id, nil, in, &dto); err != nil {
		return models.Course{}, err
	}
	return dto.toModel(), nil
}

// DeleteCourse removes a catalog entry.
func (c *Registrar) DeleteCourse(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/courses/"+id, nil, nil, nil)
}
