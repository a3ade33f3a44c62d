package models

import "time"

// AuditLimit caps how many audit events are kept when persisted.
const AuditLimit = 100

// AuditEvent records one session action for the persisted audit trail.
type AuditEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	CourseID  string    `json:"courseId,omitempty"`
	StudentID string    `json:"studentId,omitempty"`
}
