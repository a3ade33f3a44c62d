package models

import "time"

// NotificationType tags the event a notification describes.
type NotificationType string

const (
	NotificationReserve NotificationType = "reserve"
	NotificationCancel  NotificationType = "cancel"
	NotificationEnroll  NotificationType = "enroll"
	NotificationDrop    NotificationType = "drop"
	NotificationSuccess NotificationType = "success"
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
)

// RoleAll scopes a notification to every role.
const RoleAll = "all"

// Notification is one entry in the session's append-only event log.
type Notification struct {
	ID        string           `json:"id"`
	Text      string           `json:"text"`
	Type      NotificationType `json:"type"`
	CourseID  string           `json:"courseId,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
	Role      string           `json:"role"`
}
