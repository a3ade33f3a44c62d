package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/appdev-aems/portal-api/internal/service"
	"github.com/appdev-aems/portal-api/pkg/response"
)

// FacultyHandler exposes the staff dashboard endpoints.
type FacultyHandler struct {
	faculty *service.FacultyService
}

// NewFacultyHandler constructs FacultyHandler.
func NewFacultyHandler(faculty *service.FacultyService) *FacultyHandler {
	return &FacultyHandler{faculty: faculty}
}

// Records godoc
// @Summary Merged student enrollment records
// @Tags Faculty
// @Produce json
// @Param semester query string false "Semester filter"
// @Success 200 {object} response.Envelope
// @Router /faculty/records [get]
func (h *FacultyHandler) Records(c *gin.Context) {
	records, err := h.faculty.Records(c.Request.Context(), c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Stats godoc
// @Summary Dashboard counters over the merged records
// @Tags Faculty
// @Produce json
// @Param semester query string false "Semester filter"
// @Success 200 {object} response.Envelope
// @Router /faculty/stats [get]
func (h *FacultyHandler) Stats(c *gin.Context) {
	stats, err := h.faculty.Stats(c.Request.Context(), c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Approve godoc
// @Summary Approve a student's registration
// @Tags Faculty
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/approve/{studentId} [post]
func (h *FacultyHandler) Approve(c *gin.Context) {
	if err := h.faculty.Approve(c.Request.Context(), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "approved"}, nil)
}

// Statistics godoc
// @Summary Registrar aggregate statistics
// @Tags Faculty
// @Produce json
// @Param semester query string false "Semester filter"
// @Success 200 {object} response.Envelope
// @Router /faculty/statistics [get]
func (h *FacultyHandler) Statistics(c *gin.Context) {
	stats, err := h.faculty.Statistics(c.Request.Context(), c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Chart godoc
// @Summary Registrar chart data
// @Tags Faculty
// @Produce json
// @Param name path string true "Chart name"
// @Param semester query string false "Semester filter"
// @Success 200 {object} response.Envelope
// @Router /faculty/charts/{name} [get]
func (h *FacultyHandler) Chart(c *gin.Context) {
	data, err := h.faculty.ChartData(c.Request.Context(), c.Param("name"), c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}

// Export godoc
// @Summary Export merged records as CSV or PDF
// @Tags Faculty
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Param semester query string false "Semester filter"
// @Success 200
// @Router /faculty/export [get]
func (h *FacultyHandler) Export(c *gin.Context) {
	payload, contentType, err := h.faculty.ExportRecords(c.Request.Context(), c.Query("semester"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ext := "csv"
	if contentType == "application/pdf" {
		ext = "pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="enrollment-records.`+ext+`"`)
	c.Data(http.StatusOK, contentType, payload)
}
