package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTeamCreated         EventType = "team_created"
	EventTeamUpdated         EventType = "team_updated"
	EventTeamDeleted         EventType = "team_deleted"
	EventHierarchyReconciled EventType = "hierarchy_reconciled"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID   string `json:"user_id,omitempty"`
	TenantID string `json:"tenant_id"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TeamID    string      `json:"team_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TeamCreatedPayload payload.
type TeamCreatedPayload struct {
	TenantID     string `json:"tenant_id"`
	BranchID     string `json:"branch_id"`
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
}

// TeamUpdatedPayload payload.
type TeamUpdatedPayload struct {
	Name    string `json:"name"`
	OldName string `json:"old_name,omitempty"`
}

// TeamDeletedPayload payload.
type TeamDeletedPayload struct {
	Name string `json:"name"`
}

// HierarchyReconciledPayload payload.
type HierarchyReconciledPayload struct {
	Applied  int      `json:"applied"`
	Failed   int      `json:"failed"`
	Warnings []string `json:"warnings,omitempty"`
}
