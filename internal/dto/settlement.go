package dto

import "github.com/hanbit-edu/workflow-api/internal/models"

// CreateSettlementRequest asks for a settlement statement export.
type CreateSettlementRequest struct {
	Month  string                  `json:"month" validate:"required,len=7"` // YYYY-MM
	Region string                  `json:"region"`
	Format models.SettlementFormat `json:"format" validate:"required"`
}

// SettlementJobResponse is the job handle returned on creation and polling.
type SettlementJobResponse struct {
	ID        string                  `json:"id"`
	Status    models.SettlementStatus `json:"status"`
	ResultURL *string                 `json:"resultUrl,omitempty"`
}
