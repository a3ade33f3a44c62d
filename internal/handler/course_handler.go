package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/appdev-aems/portal-api/internal/client"
	"github.com/appdev-aems/portal-api/internal/session"
	appErrors "github.com/appdev-aems/portal-api/pkg/errors"
	"github.com/appdev-aems/portal-api/pkg/response"
)

// CourseHandler exposes the catalog with session-derived conflict flags,
// plus the admin CRUD surface.
type CourseHandler struct {
	sessions *session.Registry
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(sessions *session.Registry) *CourseHandler {
	return &CourseHandler{sessions: sessions}
}

// List godoc
// @Summary List catalog courses
// @Tags Courses
// @Produce json
// @Param department query string false "Department filter"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	mgr.EnsureCatalog(c.Request.Context())
	if dept := c.Query("department"); dept != "" {
		mgr.SetDepartment(c.Request.Context(), dept)
	}
	response.JSON(c, http.StatusOK, mgr.FilteredCourses(), nil)
}

// Departments godoc
// @Summary List catalog departments
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses/departments [get]
func (h *CourseHandler) Departments(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	response.JSON(c, http.StatusOK, mgr.Departments(), nil)
}

// Create godoc
// @Summary Create a catalog course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body client.CourseInput true "Course"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	var in client.CourseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course payload"))
		return
	}
	course, err := mgr.CreateCourse(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update a catalog course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body client.CourseInput true "Course"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	var in client.CourseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course payload"))
		return
	}
	course, err := mgr.UpdateCourse(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete a catalog course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	mgr := currentManager(c, h.sessions)
	if mgr == nil {
		return
	}
	if err := mgr.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
