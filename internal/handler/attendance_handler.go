package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanbit-edu/workflow-api/internal/dto"
	"github.com/hanbit-edu/workflow-api/internal/models"
	"github.com/hanbit-edu/workflow-api/internal/service"
	appErrors "github.com/hanbit-edu/workflow-api/pkg/errors"
	"github.com/hanbit-edu/workflow-api/pkg/response"
)

// AttendanceHandler exposes the attendance sheet workflow.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Open godoc
// @Summary Open (or fetch) the sheet for a class
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.OpenAttendanceRequest true "Sheet payload"
// @Success 201 {object} response.Envelope
// @Router /attendance/open [post]
func (h *AttendanceHandler) Open(c *gin.Context) {
	var req dto.OpenAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.attendance.Open(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Get godoc
// @Summary Get a sheet with students and transition history
// @Tags Attendance
// @Produce json
// @Param id path string true "Sheet ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id} [get]
func (h *AttendanceHandler) Get(c *gin.Context) {
	detail, err := h.attendance.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// AddStudent godoc
// @Summary Append a student row to a draft sheet
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Sheet ID"
// @Param payload body dto.AddStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id}/students [post]
func (h *AttendanceHandler) AddStudent(c *gin.Context) {
	var req dto.AddStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.attendance.AddStudent(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// MarkAsReady godoc
// @Summary Mark a sheet complete on the teacher's side
// @Tags Attendance
// @Produce json
// @Param id path string true "Sheet ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id}/ready [post]
func (h *AttendanceHandler) MarkAsReady(c *gin.Context) {
	h.transition(c, h.attendance.MarkAsReady)
}

// RequestFromInstructor godoc
// @Summary Instructor requests the prepared sheet
// @Tags Attendance
// @Produce json
// @Param id path string true "Sheet ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id}/request [post]
func (h *AttendanceHandler) RequestFromInstructor(c *gin.Context) {
	h.transition(c, h.attendance.RequestFromInstructor)
}

// SendToInstructor godoc
// @Summary Hand a requested sheet over to the instructor
// @Tags Attendance
// @Produce json
// @Param id path string true "Sheet ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id}/send [post]
func (h *AttendanceHandler) SendToInstructor(c *gin.Context) {
	h.transition(c, h.attendance.SendToInstructor)
}

// ReturnToTeacher godoc
// @Summary Return a sheet to the teacher for correction
// @Tags Attendance
// @Produce json
// @Param id path string true "Sheet ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id}/return [post]
func (h *AttendanceHandler) ReturnToTeacher(c *gin.Context) {
	h.transition(c, h.attendance.ReturnToTeacher)
}

// Finalize godoc
// @Summary Finalize a sheet held by the instructor
// @Tags Attendance
// @Produce json
// @Param id path string true "Sheet ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id}/finalize [post]
func (h *AttendanceHandler) Finalize(c *gin.Context) {
	h.transition(c, h.attendance.Finalize)
}

// ExportRoster godoc
// @Summary Download the finalized sheet as a PDF roster
// @Tags Attendance
// @Produce application/pdf
// @Param id path string true "Sheet ID"
// @Success 200 {file} binary
// @Router /attendance/{id}/roster [get]
func (h *AttendanceHandler) ExportRoster(c *gin.Context) {
	payload, filename, err := h.attendance.ExportRoster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", payload)
}

type attendanceTransitionFunc func(ctx context.Context, sheetID string, actor models.Actor) (*models.AttendanceDetail, error)

func (h *AttendanceHandler) transition(c *gin.Context, fn attendanceTransitionFunc) {
	detail, err := fn(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
