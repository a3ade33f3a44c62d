package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/appdev-aems/portal-api/internal/session"
	"github.com/appdev-aems/portal-api/pkg/response"
)

// NotificationHandler exposes the session's notification log.
type NotificationHandler struct {
	sessions *session.Registry
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(sessions *session.Registry) *NotificationHandler {
	return &NotificationHandler{sessions: sessions}
}

// List godoc
// @Summary List notifications visible to the caller
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	role := currentRole(c)
	meta := map[string]interface{}{"unread": mgr.Center().Unread(role)}
	response.JSON(c, http.StatusOK, mgr.Center().List(role), nil, meta)
}

// MarkRead godoc
// @Summary Mark one notification read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	mgr.Center().MarkRead(c.Param("id"))
	response.NoContent(c)
}

// MarkAllRead godoc
// @Summary Mark every visible notification read
// @Tags Notifications
// @Produce json
// @Success 204
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	mgr.Center().MarkAllRead(currentRole(c))
	response.NoContent(c)
}
