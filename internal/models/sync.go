package models

import "time"

// Student sync statuses surfaced on the faculty dashboard.
const (
	SyncStatusPending    = "Pending"
	SyncStatusRegistered = "Registered"
)

// StudentSync is the cross-instance snapshot of one student's enrollment
// standing. It lives in a shared bucket keyed by student ID with
// last-write-wins semantics; there is no delivery guarantee.
type StudentSync struct {
	StudentID   string    `json:"studentId"`
	Name        string    `json:"name"`
	Program     string    `json:"program"`
	Semester    string    `json:"semester"`
	CourseCount int       `json:"courseCount"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
