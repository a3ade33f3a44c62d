package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/appdev-aems/portal-api/internal/models"
	"github.com/appdev-aems/portal-api/internal/session"
	appErrors "github.com/appdev-aems/portal-api/pkg/errors"
	"github.com/appdev-aems/portal-api/pkg/response"
)

// SessionHandler exposes the caller's enrollment session state.
type SessionHandler struct {
	sessions *session.Registry
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(sessions *session.Registry) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// sessionState is the full snapshot returned by State.
type sessionState struct {
	Profile     models.StudentProfile `json:"profile"`
	EnrolledIDs []string              `json:"enrolledIds"`
	ReservedIDs []string              `json:"reservedIds"`
	Department  string                `json:"department"`
	Submitted   bool                  `json:"registrationSubmitted"`
	Conflicts   []string              `json:"conflicts"`
	Billing     models.Billing        `json:"billing"`
	Audit       []models.AuditEvent   `json:"auditLog"`
}

// State godoc
// @Summary Current session snapshot
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) State(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	response.JSON(c, http.StatusOK, sessionState{
		Profile:     mgr.Profile(),
		EnrolledIDs: mgr.EnrolledIDs(),
		ReservedIDs: mgr.ReservedIDs(),
		Department:  mgr.Department(),
		Submitted:   mgr.Submitted(),
		Conflicts:   mgr.Conflicts(),
		Billing:     mgr.Billing(),
		Audit:       mgr.Audit(),
	}, nil)
}

// Enroll godoc
// @Summary Enroll in a course
// @Tags Session
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /session/enroll/{id} [post]
func (h *SessionHandler) Enroll(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	if err := mgr.EnrollCourse(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"enrolledIds": mgr.EnrolledIDs(), "conflicts": mgr.Conflicts()}, nil)
}

// Drop godoc
// @Summary Drop an enrolled course
// @Tags Session
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /session/drop/{id} [post]
func (h *SessionHandler) Drop(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	if err := mgr.DropCourse(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"enrolledIds": mgr.EnrolledIDs(), "conflicts": mgr.Conflicts()}, nil)
}

// ToggleReserve godoc
// @Summary Toggle a course reservation
// @Tags Session
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /session/reserve/{id} [post]
func (h *SessionHandler) ToggleReserve(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	reserved, err := mgr.ToggleReserve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"reserved": reserved, "reservedIds": mgr.ReservedIDs()}, nil)
}

// Submit godoc
// @Summary Submit the registration
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session/submit [post]
func (h *SessionHandler) Submit(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	if err := mgr.SubmitRegistration(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"registrationSubmitted": true}, nil)
}

// UpdateProfile godoc
// @Summary Update the student profile
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body models.StudentProfile true "Profile"
// @Success 200 {object} response.Envelope
// @Router /session/profile [put]
func (h *SessionHandler) UpdateProfile(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	var incoming models.StudentProfile
	if err := c.ShouldBindJSON(&incoming); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid profile payload"))
		return
	}
	err := mgr.SetProfile(c.Request.Context(), func(current models.StudentProfile) models.StudentProfile {
		incoming.StudentID = current.StudentID // identity is not client-writable
		return incoming
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mgr.Profile(), nil)
}

// SetDepartment godoc
// @Summary Set the department filter
// @Tags Session
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session/department [put]
func (h *SessionHandler) SetDepartment(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	var req struct {
		Department string `json:"department"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	mgr.SetDepartment(c.Request.Context(), req.Department)
	response.JSON(c, http.StatusOK, gin.H{"department": mgr.Department()}, nil)
}

// Schedule godoc
// @Summary Weekly schedule for the active selection
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session/schedule [get]
func (h *SessionHandler) Schedule(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"courses":   mgr.ActiveCourses(),
		"intervals": mgr.Schedule(),
		"conflicts": mgr.Conflicts(),
	}, nil)
}

// Billing godoc
// @Summary Tuition for the active selection
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session/billing [get]
func (h *SessionHandler) Billing(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	response.JSON(c, http.StatusOK, mgr.Billing(), nil)
}

// Logout godoc
// @Summary Close the session
// @Tags Session
// @Produce json
// @Param clear query bool false "Also purge stored data"
// @Success 200 {object} response.Envelope
// @Router /session/logout [post]
func (h *SessionHandler) Logout(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	clear := c.Query("clear") == "true"
	if err := h.sessions.Logout(c.Request.Context(), mgr.UserID(), clear); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "logged out"}, nil)
}
