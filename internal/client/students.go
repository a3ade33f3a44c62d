package client

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/appdev-aems/portal-api/internal/models"
)

type studentDTO struct {
	StudentID   int64  `json:"studentId"`
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Program     string `json:"program,omitempty"`
	Semester    string `json:"semester,omitempty"`
	YearLevel   string `json:"yearLevel,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Address     string `json:"address,omitempty"`
}

// StudentUpdate is the payload for the registrar's student PUT.
type StudentUpdate struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Program   string `json:"program,omitempty"`
	Semester  string `json:"semester,omitempty"`
	YearLevel string `json:"yearLevel,omitempty"`
}

func (d studentDTO) toProfile() models.StudentProfile {
	return models.StudentProfile{
		StudentID: strconv.FormatInt(d.StudentID, 10),
		FullName:  strings.TrimSpace(d.Firstname + " " + d.Lastname),
		Email:     d.Email,
		Phone:     d.Phone,
		Program:   d.Program,
		Semester:  d.Semester,
		YearLevel: d.YearLevel,
	}
}

// ListStudents fetches the registrar's student roster.
func (c *Registrar) ListStudents(ctx context.Context) ([]models.StudentProfile, error) {
	var dtos []studentDTO
	if err := c.do(ctx, http.MethodGet, "/student", nil, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]models.StudentProfile, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toProfile())
	}
	return out, nil
}

// GetStudent fetches one student by id.
func (c *Registrar) GetStudent(ctx context.Context, id string) (models.StudentProfile, error) {
	var dto studentDTO
	if err := c.do(ctx, http.MethodGet, "/student/"+id, nil, nil, &dto); err != nil {
		return models.StudentProfile{}, err
	}
	return dto.toProfile(), nil
}

// UpdateStudent mirrors a profile change to the registrar.
func (c *Registrar) UpdateStudent(ctx context.Context, id string, in StudentUpdate) error {
	return c.do(ctx, http.MethodPut, "/student/"+id, nil, in, nil)
}

// SplitFullName separates a display name into the registrar's
// firstname/lastname pair.
func SplitFullName(fullName string) (first, last string) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return "", ""
	}
	idx := strings.LastIndex(fullName, " ")
	if idx < 0 {
		return fullName, ""
	}
	return fullName[:idx], fullName[idx+1:]
}
