package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/team-hierarchy-service/internal/api/dto"
	"github.com/spec-kit/team-hierarchy-service/internal/auth"
	"github.com/spec-kit/team-hierarchy-service/internal/domain"
	"github.com/spec-kit/team-hierarchy-service/internal/service"
	apperrors "github.com/spec-kit/team-hierarchy-service/pkg/util/errorutil"
)

// TeamsHandler manages team endpoints.
type TeamsHandler struct {
	service *service.TeamService
}

// NewTeamsHandler constructs handler.
func NewTeamsHandler(teamService *service.TeamService) *TeamsHandler {
	return &TeamsHandler{service: teamService}
}

// ListTeams GET /teams.
func (h *TeamsHandler) ListTeams(c *fiber.Ctx) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	teams, err := h.service.ListTeams(c.UserContext(), scope)
	if err != nil {
		return err
	}
	items := make([]dto.TeamSummary, 0, len(teams))
	for i := range teams {
		items = append(items, dto.NewTeamSummary(&teams[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTeam GET /teams/:id.
func (h *TeamsHandler) GetTeam(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	team, tree, err := h.service.GetTeam(c.UserContext(), principal.TenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTeamDetail(team, tree)})
}

// CreateTeam POST /teams.
func (h *TeamsHandler) CreateTeam(c *fiber.Ctx) error {
	return h.submit(c, "")
}

// UpdateTeam PUT /teams/:id.
func (h *TeamsHandler) UpdateTeam(c *fiber.Ctx) error {
	return h.submit(c, c.Params("id"))
}

func (h *TeamsHandler) submit(c *fiber.Ctx, teamID string) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TeamSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.ValidateStruct(req); err != nil {
		return err
	}

	tree, err := req.Hierarchy.ToDomainTree()
	if err != nil {
		return err
	}

	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	result, err := h.service.Submit(c.UserContext(), service.SubmitForm{
		TeamID:           teamID,
		Scope:            scope,
		Name:             req.Name,
		Description:      req.Description,
		DepartmentHeadID: req.DepartmentHeadID,
		Hierarchy:        tree,
		ConfirmSimilar:   req.ConfirmSimilar,
		ActorUserID:      principal.UserID,
	})
	if err != nil {
		return err
	}
	if result.NeedsConfirmation {
		return apperrors.NewDomainError(
			"SIMILAR_NAMES",
			"similar team names exist in this scope; resubmit with confirm_similar to proceed",
			fiber.StatusConflict,
			map[string]any{"similar": result.SimilarNames},
		)
	}

	status := fiber.StatusOK
	if teamID == "" {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": dto.NewSubmitResponse(result)})
}

// DeleteTeam DELETE /teams/:id.
func (h *TeamsHandler) DeleteTeam(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.DeleteTeam(c.UserContext(), principal.TenantID, c.Params("id"), principal.UserID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CheckName POST /teams/name-check.
func (h *TeamsHandler) CheckName(c *fiber.Ctx) error {
	var req dto.NameCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.ValidateStruct(req); err != nil {
		return err
	}
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	result, err := h.service.CheckName(c.UserContext(), scope, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NameCheckResponse{Exists: result.Exists, Similar: result.Similar}})
}

// requestScope resolves the (tenant, branch, department) scope: tenant always
// comes from the token, branch/department default from the token but may be
// narrowed by query parameters.
func requestScope(c *fiber.Ctx) (domain.TeamScope, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.TeamScope{}, apperrors.NewUnauthorized("authentication required")
	}
	scope := domain.TeamScope{
		TenantID:     principal.TenantID,
		BranchID:     principal.BranchID,
		DepartmentID: principal.DepartmentID,
	}
	if branch := c.Query("branch_id"); branch != "" {
		scope.BranchID = branch
	}
	if dept := c.Query("department_id"); dept != "" {
		scope.DepartmentID = dept
	}
	if scope.BranchID == "" || scope.DepartmentID == "" {
		return domain.TeamScope{}, apperrors.NewValidationError("branch_id and department_id required", nil)
	}
	return scope, nil
}
