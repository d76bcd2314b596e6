package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanbit-edu/workflow-api/internal/dto"
	"github.com/hanbit-edu/workflow-api/internal/service"
	appErrors "github.com/hanbit-edu/workflow-api/pkg/errors"
	"github.com/hanbit-edu/workflow-api/pkg/response"
)

// AssignmentHandler exposes instructor assignment endpoints.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Overview godoc
// @Summary Assignment overview of one education
// @Tags Assignments
// @Produce json
// @Param id path string true "Education ID"
// @Success 200 {object} response.Envelope
// @Router /educations/{id}/assignments [get]
func (h *AssignmentHandler) Overview(c *gin.Context) {
	overview, err := h.assignments.Overview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// Assign godoc
// @Summary Bind an instructor to lesson sessions
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Education ID"
// @Param payload body dto.AssignInstructorRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /educations/{id}/assignments [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req dto.AssignInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	overview, err := h.assignments.Assign(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, overview)
}

// Confirm godoc
// @Summary Confirm a pending instructor binding
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Education ID"
// @Param payload body dto.ConfirmInstructorRequest true "Binding to confirm"
// @Success 200 {object} response.Envelope
// @Router /educations/{id}/assignments/confirm [post]
func (h *AssignmentHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	overview, err := h.assignments.Confirm(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// Remove godoc
// @Summary Remove an instructor binding
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Education ID"
// @Param payload body dto.RemoveInstructorRequest true "Binding to remove"
// @Success 200 {object} response.Envelope
// @Router /educations/{id}/assignments [delete]
func (h *AssignmentHandler) Remove(c *gin.Context) {
	var req dto.RemoveInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	overview, err := h.assignments.Remove(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// ListByInstructor godoc
// @Summary Bindings of one instructor across educations
// @Tags Assignments
// @Produce json
// @Param id path string true "Instructor ID"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id}/assignments [get]
func (h *AssignmentHandler) ListByInstructor(c *gin.Context) {
	bindings, err := h.assignments.ListByInstructor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bindings, nil)
}
