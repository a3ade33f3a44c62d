package models

// StudentProfile is the active user's academic record. Exactly one profile
// is live per session; the zero value stands in when nobody is logged in.
type StudentProfile struct {
	SchoolID         string `json:"schoolId"`
	StudentID        string `json:"studentId"`
	FullName         string `json:"fullName"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	YearLevel        string `json:"yearLevel"`
	Semester         string `json:"semester"`
	Program          string `json:"program"`
	EnrollmentStatus string `json:"enrollmentStatus"`
	ProfilePicture   string `json:"profilePicture,omitempty"`
	JoinDate         string `json:"joinDate,omitempty"`
}

// Empty reports whether the profile carries no identity.
func (p StudentProfile) Empty() bool {
	return p.StudentID == "" && p.SchoolID == ""
}

// StudentRecord is the staff-facing view of one student's enrollment
// standing, assembled from registrar data and live sync snapshots.
type StudentRecord struct {
	StudentID   string `json:"studentId"`
	Name        string `json:"name"`
	Program     string `json:"program"`
	Semester    string `json:"semester"`
	CourseCount int    `json:"courseCount"`
	Date        string `json:"date"`
	Status      string `json:"status"`
}

// EnrollmentStats aggregates the faculty dashboard counters.
type EnrollmentStats struct {
	PendingEnrollments int `json:"pendingEnrollments"`
	ApprovedToday      int `json:"approvedToday"`
	TotalStudents      int `json:"totalStudents"`
	RequiresAttention  int `json:"requiresAttention"`
}
