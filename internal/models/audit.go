package models

import "time"

// Audit actions recorded by the workflow core.
const (
	AuditActionCreate           = "education.create"
	AuditActionTransition       = "education.transition"
	AuditActionActivation       = "education.activation"
	AuditActionAssign           = "assignment.assign"
	AuditActionConfirm          = "assignment.confirm"
	AuditActionRemove           = "assignment.remove"
	AuditActionApply            = "application.apply"
	AuditActionDecide           = "application.decide"
	AuditActionAttendanceChange = "attendance.transition"
	AuditActionSettlement       = "settlement.request"
)

// AuditLog records who did what to which entity.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	ActorID    *string   `db:"actor_id" json:"actorId,omitempty"`
	ActorRole  string    `db:"actor_role" json:"actorRole"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty"`
	Payload    []byte    `db:"payload" json:"payload,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ipAddress"`
	UserAgent  string    `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
