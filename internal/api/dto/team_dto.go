package dto

import (
	"time"

	"github.com/spec-kit/team-hierarchy-service/internal/domain"
	"github.com/spec-kit/team-hierarchy-service/internal/service"
	apperrors "github.com/spec-kit/team-hierarchy-service/pkg/util/errorutil"
)

// TeamSubmitRequest is the create/edit payload, hierarchy included. Node ids
// are present on nodes that already exist in the store and absent on nodes
// added in the form.
type TeamSubmitRequest struct {
	Name             string           `json:"name" validate:"required,max=120"`
	Description      string           `json:"description" validate:"max=500"`
	DepartmentHeadID *string          `json:"department_head_id"`
	Hierarchy        HierarchyRequest `json:"hierarchy"`
	ConfirmSimilar   bool             `json:"confirm_similar"`
}

// HierarchyRequest mirrors the three-level tree.
type HierarchyRequest struct {
	Managers []ManagerRequest `json:"managers" validate:"dive"`
}

// ManagerRequest node payload.
type ManagerRequest struct {
	ID        string            `json:"id,omitempty"`
	UserID    string            `json:"user_id" validate:"required"`
	TeamLeads []TeamLeadRequest `json:"team_leads" validate:"dive"`
}

// TeamLeadRequest node payload.
type TeamLeadRequest struct {
	ID      string          `json:"id,omitempty"`
	UserID  string          `json:"user_id" validate:"required"`
	Members []MemberRequest `json:"members" validate:"dive"`
}

// MemberRequest node payload.
type MemberRequest struct {
	ID     string `json:"id,omitempty"`
	UserID string `json:"user_id" validate:"required"`
}

// NameCheckRequest payload for inline duplicate classification.
type NameCheckRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// TeamSummary response.
type TeamSummary struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	BranchID         string    `json:"branch_id"`
	DepartmentID     string    `json:"department_id"`
	DepartmentHeadID *string   `json:"department_head_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TeamDetailResponse is a team with its hierarchy.
type TeamDetailResponse struct {
	TeamSummary
	Hierarchy HierarchyResponse `json:"hierarchy"`
}

// HierarchyResponse mirrors the stored tree.
type HierarchyResponse struct {
	Managers []ManagerResponse `json:"managers"`
}

// ManagerResponse node.
type ManagerResponse struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	TeamLeads []TeamLeadResponse `json:"team_leads"`
}

// TeamLeadResponse node.
type TeamLeadResponse struct {
	ID      string           `json:"id"`
	UserID  string           `json:"user_id"`
	Members []MemberResponse `json:"members"`
}

// MemberResponse node.
type MemberResponse struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

// SubmitResponse is the outcome of a submission.
type SubmitResponse struct {
	ID       string   `json:"id"`
	Warnings []string `json:"warnings,omitempty"`
}

// NameCheckResponse classifies a candidate name.
type NameCheckResponse struct {
	Exists  bool     `json:"exists"`
	Similar []string `json:"similar,omitempty"`
}

// ToDomainTree converts the request hierarchy into a domain tree. Nodes
// without an id get pending ids; duplicate user assignments surface as
// field validation errors.
func (r HierarchyRequest) ToDomainTree() (*domain.HierarchyTree, error) {
	tree := domain.NewHierarchyTree()
	for _, m := range r.Managers {
		mgr, err := tree.AddManager(m.UserID)
		if err != nil {
			return nil, assignmentError(err)
		}
		if m.ID != "" {
			mgr.ID = domain.PersistedID(m.ID)
			tree.Managers[len(tree.Managers)-1].ID = mgr.ID
		}
		for _, l := range m.TeamLeads {
			lead, err := tree.AddTeamLead(mgr.ID, l.UserID)
			if err != nil {
				return nil, assignmentError(err)
			}
			if l.ID != "" {
				lead.ID = domain.PersistedID(l.ID)
				leads := tree.Managers[len(tree.Managers)-1].TeamLeads
				leads[len(leads)-1].ID = lead.ID
			}
			for _, mem := range l.Members {
				if _, err := tree.AddMember(lead.ID, mem.UserID); err != nil {
					return nil, assignmentError(err)
				}
				if mem.ID != "" {
					leads := tree.Managers[len(tree.Managers)-1].TeamLeads
					members := leads[len(leads)-1].Members
					members[len(members)-1].ID = domain.PersistedID(mem.ID)
				}
			}
		}
	}
	return tree, nil
}

func assignmentError(err error) error {
	if dup, ok := err.(*domain.DuplicateAssignmentError); ok {
		field := map[domain.HierarchyLevel]string{
			domain.LevelManager:  "managers",
			domain.LevelTeamLead: "teamLeads",
			domain.LevelMember:   "members",
		}[dup.Level]
		return apperrors.NewFieldValidationError(map[string][]string{field: {dup.Error()}})
	}
	return apperrors.NewValidationError("invalid hierarchy", nil)
}

// NewTeamSummary maps a domain team.
func NewTeamSummary(team *domain.Team) TeamSummary {
	return TeamSummary{
		ID:               team.ID,
		Name:             team.Name,
		Description:      team.Description,
		BranchID:         team.BranchID,
		DepartmentID:     team.DepartmentID,
		DepartmentHeadID: team.DepartmentHeadID,
		CreatedAt:        team.CreatedAt,
		UpdatedAt:        team.UpdatedAt,
	}
}

// NewTeamDetail maps a team and its hierarchy.
func NewTeamDetail(team *domain.Team, tree *domain.HierarchyTree) TeamDetailResponse {
	return TeamDetailResponse{
		TeamSummary: NewTeamSummary(team),
		Hierarchy:   NewHierarchyResponse(tree),
	}
}

// NewHierarchyResponse maps a domain tree.
func NewHierarchyResponse(tree *domain.HierarchyTree) HierarchyResponse {
	resp := HierarchyResponse{Managers: []ManagerResponse{}}
	if tree == nil {
		return resp
	}
	for _, m := range tree.Managers {
		mgr := ManagerResponse{ID: m.ID.Value(), UserID: m.UserID, TeamLeads: []TeamLeadResponse{}}
		for _, l := range m.TeamLeads {
			lead := TeamLeadResponse{ID: l.ID.Value(), UserID: l.UserID, Members: []MemberResponse{}}
			for _, mem := range l.Members {
				lead.Members = append(lead.Members, MemberResponse{ID: mem.ID.Value(), UserID: mem.UserID})
			}
			mgr.TeamLeads = append(mgr.TeamLeads, lead)
		}
		resp.Managers = append(resp.Managers, mgr)
	}
	return resp
}

// NewSubmitResponse maps a service result.
func NewSubmitResponse(result *service.SubmitResult) SubmitResponse {
	return SubmitResponse{ID: result.TeamID, Warnings: result.Warnings}
}
