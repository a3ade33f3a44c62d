// Package notify keeps the session's append-only log of user-facing
// events with read/unread tracking. Entries live in memory only.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/appdev-aems/portal-api/internal/models"
)

// Center is an in-memory notification log. Newest entries come first.
type Center struct {
	mu      sync.RWMutex
	entries []models.Notification
	now     func() time.Time
}

// NewCenter constructs an empty notification center.
func NewCenter() *Center {
	return &Center{now: time.Now}
}

// Add appends a notification with a generated id and current timestamp and
// returns it. An empty role scopes the entry to every reader.
func (c *Center) Add(text string, typ models.NotificationType, courseID, role string) models.Notification {
	if role == "" {
		role = models.RoleAll
	}
	n := models.Notification{
		ID:        uuid.NewString(),
		Text:      text,
		Type:      typ,
		CourseID:  courseID,
		Timestamp: c.now().UTC(),
		Role:      role,
	}
	c.mu.Lock()
	c.entries = append([]models.Notification{n}, c.entries...)
	c.mu.Unlock()
	return n
}

// MarkRead flips the read flag on one entry.
func (c *Center) MarkRead(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		if c.entries[i].ID == id {
			c.entries[i].Read = true
			return
		}
	}
}

// MarkAllRead flips the read flag on every entry scoped to "all" or the
// given role, leaving other roles' entries untouched.
func (c *Center) MarkAllRead(role string) {
	if role == "" {
		role = models.RoleAll
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		if c.entries[i].Role == models.RoleAll || c.entries[i].Role == role {
			c.entries[i].Read = true
		}
	}
}

// List returns entries visible to the given role, newest first. An empty
// role returns everything.
func (c *Center) List(role string) []models.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Notification, 0, len(c.entries))
	for _, n := range c.entries {
		if role == "" || n.Role == models.RoleAll || n.Role == role {
			out = append(out, n)
		}
	}
	return out
}

// Unread counts unread entries visible to the given role.
func (c *Center) Unread(role string) int {
	count := 0
	for _, n := range c.List(role) {
		if !n.Read {
			count++
		}
	}
	return count
}

// Reset drops every entry; used on logout.
func (c *Center) Reset() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}
