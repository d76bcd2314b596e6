package models

import "time"

// SettlementFormat enumerates supported statement formats.
type SettlementFormat string

const (
	SettlementFormatCSV SettlementFormat = "csv"
	SettlementFormatPDF SettlementFormat = "pdf"
)

// SettlementStatus tracks the export job lifecycle.
type SettlementStatus string

const (
	SettlementQueued     SettlementStatus = "QUEUED"
	SettlementProcessing SettlementStatus = "PROCESSING"
	SettlementDone       SettlementStatus = "DONE"
	SettlementFailed     SettlementStatus = "FAILED"
)

// SettlementJob is one asynchronous settlement statement request: the fee
// breakdown of every counted education in a month, rendered to a file.
type SettlementJob struct {
	ID           string           `db:"id" json:"id"`
	Month        string           `db:"month" json:"month"` // YYYY-MM
	Region       string           `db:"region" json:"region,omitempty"`
	Format       SettlementFormat `db:"format" json:"format"`
	Status       SettlementStatus `db:"status" json:"status"`
	ResultPath   *string          `db:"result_path" json:"-"`
	ResultURL    *string          `db:"result_url" json:"resultUrl,omitempty"`
	ErrorMessage *string          `db:"error_message" json:"errorMessage,omitempty"`
	RequestedBy  string           `db:"requested_by" json:"requestedBy"`
	CreatedAt    time.Time        `db:"created_at" json:"createdAt"`
	FinishedAt   *time.Time       `db:"finished_at" json:"finishedAt,omitempty"`
}
