package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hanbit-edu/workflow-api/internal/dto"
	"github.com/hanbit-edu/workflow-api/internal/models"
	"github.com/hanbit-edu/workflow-api/internal/service"
	appErrors "github.com/hanbit-edu/workflow-api/pkg/errors"
	"github.com/hanbit-edu/workflow-api/pkg/response"
)

// EducationHandler exposes education lifecycle endpoints.
type EducationHandler struct {
	educations *service.StatusService
	fees       *service.FeeService
}

// NewEducationHandler constructs EducationHandler.
func NewEducationHandler(educations *service.StatusService, fees *service.FeeService) *EducationHandler {
	return &EducationHandler{educations: educations, fees: fees}
}

// List godoc
// @Summary List educations
// @Tags Educations
// @Produce json
// @Param status query string false "Filter by status"
// @Param region query string false "Filter by region"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /educations [get]
func (h *EducationHandler) List(c *gin.Context) {
	var query dto.EducationQuery
	query.Status = models.EducationStatus(c.Query("status"))
	query.Region = c.Query("region")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		query.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		query.Limit = limit
	}

	educations, pagination, err := h.educations.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, educations, pagination)
}

// Get godoc
// @Summary Get education detail
// @Tags Educations
// @Produce json
// @Param id path string true "Education ID"
// @Success 200 {object} response.Envelope
// @Router /educations/{id} [get]
func (h *EducationHandler) Get(c *gin.Context) {
	education, err := h.educations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, education, nil)
}

// Create godoc
// @Summary Register an education with its lesson plan
// @Tags Educations
// @Accept json
// @Produce json
// @Param payload body dto.CreateEducationRequest true "Education payload"
// @Success 201 {object} response.Envelope
// @Router /educations [post]
func (h *EducationHandler) Create(c *gin.Context) {
	var req dto.CreateEducationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	education, err := h.educations.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, education)
}

// Transition godoc
// @Summary Move an education to an explicit status
// @Tags Educations
// @Accept json
// @Produce json
// @Param id path string true "Education ID"
// @Param payload body dto.TransitionRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Router /educations/{id}/transition [post]
func (h *EducationHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	education, err := h.educations.Transition(c.Request.Context(), c.Param("id"), req.TargetStatus, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, education, nil)
}

// Advance godoc
// @Summary Advance an education to its next lifecycle status
// @Tags Educations
// @Produce json
// @Param id path string true "Education ID"
// @Success 200 {object} response.Envelope
// @Router /educations/{id}/advance [post]
func (h *EducationHandler) Advance(c *gin.Context) {
	education, err := h.educations.Advance(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, education, nil)
}

// ScheduleActivation godoc
// @Summary Schedule automatic open/close of the application window
// @Tags Educations
// @Accept json
// @Produce json
// @Param id path string true "Education ID"
// @Param payload body dto.ScheduleActivationRequest true "Activation payload"
// @Success 200 {object} response.Envelope
// @Router /educations/{id}/activation [post]
func (h *EducationHandler) ScheduleActivation(c *gin.Context) {
	var req dto.ScheduleActivationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	education, err := h.educations.ScheduleActivation(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, education, nil)
}

// Fee godoc
// @Summary Fee breakdown of one education
// @Tags Fees
// @Produce json
// @Param id path string true "Education ID"
// @Param mode query string false "Policy mode override (STATUS_BASED or ASSIGNMENT_BASED)"
// @Success 200 {object} response.Envelope
// @Router /educations/{id}/fee [get]
func (h *EducationHandler) Fee(c *gin.Context) {
	breakdown, err := h.fees.Compute(c.Request.Context(), c.Param("id"), models.FeePolicyMode(c.Query("mode")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, breakdown, nil)
}
