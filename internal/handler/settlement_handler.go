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

// SettlementHandler exposes settlement statement exports.
type SettlementHandler struct {
	settlements *service.SettlementService
}

// NewSettlementHandler constructs SettlementHandler.
func NewSettlementHandler(settlements *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlements: settlements}
}

// Create godoc
// @Summary Queue a monthly settlement statement export
// @Tags Settlements
// @Accept json
// @Produce json
// @Param payload body dto.CreateSettlementRequest true "Export payload"
// @Success 202 {object} response.Envelope
// @Router /settlements [post]
func (h *SettlementHandler) Create(c *gin.Context) {
	var req dto.CreateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	job, err := h.settlements.Request(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, toSettlementResponse(job), nil)
}

// Get godoc
// @Summary Poll a settlement job
// @Tags Settlements
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /settlements/{id} [get]
func (h *SettlementHandler) Get(c *gin.Context) {
	job, err := h.settlements.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, toSettlementResponse(job), nil)
}

// Download godoc
// @Summary Download a finished settlement statement
// @Tags Settlements
// @Produce application/octet-stream
// @Param id path string true "Job ID"
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /settlements/{id}/download [get]
func (h *SettlementHandler) Download(c *gin.Context) {
	file, filename, err := h.settlements.Download(c.Request.Context(), c.Param("id"), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()
	c.FileAttachment(file.Name(), filename)
}

func toSettlementResponse(job *models.SettlementJob) dto.SettlementJobResponse {
	return dto.SettlementJobResponse{ID: job.ID, Status: job.Status, ResultURL: job.ResultURL}
}
