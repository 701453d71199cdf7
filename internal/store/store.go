package store

import (
	"context"

	"github.com/spec-kit/team-hierarchy-service/internal/domain"
)

// TeamFilter scopes a team listing. All three fields are required; the store
// never returns teams outside the tenant.
type TeamFilter struct {
	TenantID     string
	BranchID     string
	DepartmentID string
}

// TeamStore is the boundary to the system of record for teams and their
// hierarchies. It exposes per-node create/delete operations only; there is no
// batch or transactional surface, and no node update for reassignment. Moving
// a user between parents is a delete-then-create pair at a higher layer.
type TeamStore interface {
	ListTeams(ctx context.Context, filter TeamFilter) ([]domain.Team, error)
	GetTeam(ctx context.Context, id string) (*domain.Team, error)
	GetHierarchy(ctx context.Context, teamID string) (*domain.HierarchyTree, error)

	CreateTeam(ctx context.Context, team *domain.Team) error
	UpdateTeam(ctx context.Context, team *domain.Team) error
	DeleteTeam(ctx context.Context, id string) error

	CreateManager(ctx context.Context, teamID, userID string) (domain.ManagerNode, error)
	DeleteManager(ctx context.Context, id string) error

	CreateTeamLead(ctx context.Context, teamID, managerID, userID string) (domain.TeamLeadNode, error)
	DeleteTeamLead(ctx context.Context, id string) error

	CreateMember(ctx context.Context, teamID, teamLeadID, userID string) (domain.MemberNode, error)
	DeleteMember(ctx context.Context, id string) error
}
