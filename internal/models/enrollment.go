package models

// EnrollmentStatus mirrors the registrar's enrollment lifecycle.
type EnrollmentStatus string

const (
	EnrollmentStatusPending  EnrollmentStatus = "pending"
	EnrollmentStatusEnrolled EnrollmentStatus = "enrolled"
	EnrollmentStatusDropped  EnrollmentStatus = "dropped"
)

// Enrollment is the registrar-side record mirroring one local enrollment.
type Enrollment struct {
	ID             string           `json:"enrollmentId"`
	StudentID      string           `json:"studentId"`
	CourseID       string           `json:"courseId"`
	Status         EnrollmentStatus `json:"status"`
	Semester       string           `json:"semester,omitempty"`
	EnrollmentDate string           `json:"enrollmentDate,omitempty"`
}

// Pagination carries list metadata in response envelopes.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
