package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanbit-edu/workflow-api/internal/dto"
	"github.com/hanbit-edu/workflow-api/internal/models"
	"github.com/hanbit-edu/workflow-api/internal/service"
	appErrors "github.com/hanbit-edu/workflow-api/pkg/errors"
	"github.com/hanbit-edu/workflow-api/pkg/response"
)

// ApplicationHandler exposes instructor application endpoints.
type ApplicationHandler struct {
	applications *service.ApplicationService
}

// NewApplicationHandler constructs ApplicationHandler.
func NewApplicationHandler(applications *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// Apply godoc
// @Summary Apply to teach an education
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body dto.CreateApplicationRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Apply(c *gin.Context) {
	var req dto.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	application, err := h.applications.Apply(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, application)
}

// List godoc
// @Summary List applications
// @Tags Applications
// @Produce json
// @Param educationId query string false "Filter by education"
// @Param instructorId query string false "Filter by instructor (admins only)"
// @Param status query string false "Filter by stored status"
// @Success 200 {object} response.Envelope
// @Router /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	query := dto.ApplicationQuery{
		EducationID:  c.Query("educationId"),
		InstructorID: c.Query("instructorId"),
		Status:       models.ApplicationStatus(c.Query("status")),
	}
	// Instructors only ever see their own applications.
	if actor := actorFromContext(c); actor.Role == models.RoleInstructor {
		query.InstructorID = actor.ID
	}

	applications, err := h.applications.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, applications, nil)
}

// Get godoc
// @Summary Get one application with its derived final status
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	application, err := h.applications.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if actor := actorFromContext(c); actor.Role == models.RoleInstructor && application.InstructorID != actor.ID {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "not your application"))
		return
	}
	response.JSON(c, http.StatusOK, application, nil)
}

// Decide godoc
// @Summary Accept or reject an application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.DecideApplicationRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/decision [post]
func (h *ApplicationHandler) Decide(c *gin.Context) {
	var req dto.DecideApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	application, err := h.applications.Decide(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, application, nil)
}
