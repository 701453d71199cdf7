package domain

import "time"

// TeamScope is the uniqueness boundary for team names. Every query and
// mutation is scoped to one tenant.
type TeamScope struct {
	TenantID     string
	BranchID     string
	DepartmentID string
}

// Team represents the top-level organizational unit being configured.
type Team struct {
	ID               string
	TenantID         string
	BranchID         string
	DepartmentID     string
	Name             string
	Description      string
	DepartmentHeadID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Scope returns the (tenant, branch, department) scope of the team.
func (t *Team) Scope() TeamScope {
	return TeamScope{
		TenantID:     t.TenantID,
		BranchID:     t.BranchID,
		DepartmentID: t.DepartmentID,
	}
}
