package models

import "time"

// EventType names the change notifications consumed by presentation layers.
type EventType string

const (
	EventStatusChanged           EventType = "StatusChanged"
	EventAssignmentChanged       EventType = "AssignmentChanged"
	EventAttendanceStatusChanged EventType = "AttendanceStatusChanged"
)

// WorkflowEvent is published after every successful mutation.
type WorkflowEvent struct {
	Type     EventType `json:"type"`
	EntityID string    `json:"entityId"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	Actor    Actor     `json:"actor"`
	At       time.Time `json:"at"`
}
