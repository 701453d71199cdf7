package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/team-hierarchy-service/internal/domain"
	"github.com/spec-kit/team-hierarchy-service/internal/events"
	"github.com/spec-kit/team-hierarchy-service/internal/namecheck"
	"github.com/spec-kit/team-hierarchy-service/internal/reconcile"
	"github.com/spec-kit/team-hierarchy-service/internal/store"
	"github.com/spec-kit/team-hierarchy-service/pkg/util/errorutil"
)

// TeamService coordinates team submission workflows.
type TeamService struct {
	store      store.TeamStore
	detector   *namecheck.Detector
	engine     *reconcile.Engine
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TeamDependencies bundles collaborators for the team service.
type TeamDependencies struct {
	Store      store.TeamStore
	Detector   *namecheck.Detector
	Engine     *reconcile.Engine
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// SubmitForm describes a create or edit submission, hierarchy included.
type SubmitForm struct {
	TeamID           string // empty for create flow
	Scope            domain.TeamScope
	Name             string
	Description      string
	DepartmentHeadID *string
	Hierarchy        *domain.HierarchyTree
	ConfirmSimilar   bool
	ActorUserID      string
}

// SubmitResult is the outcome of a submission. When NeedsConfirmation is set
// nothing was written: SimilarNames holds the matches the caller must
// acknowledge before resubmitting with ConfirmSimilar.
type SubmitResult struct {
	TeamID            string
	Warnings          []string
	SimilarNames      []string
	NeedsConfirmation bool
}

// NameCheckResult classifies a candidate name within a scope.
type NameCheckResult struct {
	Exists  bool
	Similar []string
}

// NewTeamService constructs the service.
func NewTeamService(deps TeamDependencies) *TeamService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeamService{
		store:      deps.Store,
		detector:   deps.Detector,
		engine:     deps.Engine,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Submit runs the full submission pipeline: validation, duplicate
// classification, team persistence, hierarchy reconciliation, events.
func (s *TeamService) Submit(ctx context.Context, form SubmitForm) (*SubmitResult, error) {
	tree := form.Hierarchy
	if tree == nil {
		tree = &domain.HierarchyTree{}
	}

	if fieldErrs := s.validate(form, tree); len(fieldErrs) > 0 {
		return nil, errorutil.NewFieldValidationError(fieldErrs)
	}

	normalized := namecheck.Normalize(form.Name)

	if form.TeamID == "" {
		return s.create(ctx, form, normalized, tree)
	}
	return s.update(ctx, form, normalized, tree)
}

func (s *TeamService) create(ctx context.Context, form SubmitForm, name string, tree *domain.HierarchyTree) (*SubmitResult, error) {
	if s.detector.CheckExists(ctx, name, form.Scope) {
		return nil, errorutil.NewDuplicateName(name, nil)
	}

	if !form.ConfirmSimilar {
		if similar := similarNames(s.detector.FindSimilar(ctx, name, form.Scope)); len(similar) > 0 {
			return &SubmitResult{SimilarNames: similar, NeedsConfirmation: true}, nil
		}
	}

	team := &domain.Team{
		TenantID:         form.Scope.TenantID,
		BranchID:         form.Scope.BranchID,
		DepartmentID:     form.Scope.DepartmentID,
		Name:             name,
		Description:      strings.TrimSpace(form.Description),
		DepartmentHeadID: form.DepartmentHeadID,
	}
	if err := s.store.CreateTeam(ctx, team); err != nil {
		return nil, mapStoreErr(err)
	}
	s.detector.Invalidate(ctx, form.Scope)

	result, _ := s.engine.Reconcile(ctx, team.ID, &domain.HierarchyTree{}, tree)

	s.publishEvent(ctx, events.Event{
		Type:   events.EventTeamCreated,
		TeamID: team.ID,
		Actor:  actor(form),
		Payload: events.TeamCreatedPayload{
			TenantID:     team.TenantID,
			BranchID:     team.BranchID,
			DepartmentID: team.DepartmentID,
			Name:         team.Name,
		},
	})
	s.publishReconciled(ctx, team.ID, form, result)

	return &SubmitResult{TeamID: team.ID, Warnings: result.Warnings()}, nil
}

func (s *TeamService) update(ctx context.Context, form SubmitForm, name string, tree *domain.HierarchyTree) (*SubmitResult, error) {
	team, err := s.store.GetTeam(ctx, form.TeamID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if team.TenantID != form.Scope.TenantID {
		return nil, errorutil.NewNotFound("team", nil)
	}

	oldName := team.Name
	renamed := !strings.EqualFold(namecheck.Normalize(oldName), name)
	if renamed {
		if s.detector.CheckExists(ctx, name, form.Scope) {
			return nil, errorutil.NewDuplicateName(name, nil)
		}
		if !form.ConfirmSimilar {
			if similar := similarNames(s.detector.FindSimilar(ctx, name, form.Scope)); len(similar) > 0 {
				return &SubmitResult{SimilarNames: similar, NeedsConfirmation: true}, nil
			}
		}
	}

	original, err := s.store.GetHierarchy(ctx, team.ID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	team.Name = name
	team.Description = strings.TrimSpace(form.Description)
	team.DepartmentHeadID = form.DepartmentHeadID
	if err := s.store.UpdateTeam(ctx, team); err != nil {
		return nil, mapStoreErr(err)
	}
	s.detector.Invalidate(ctx, form.Scope)

	result, _ := s.engine.Reconcile(ctx, team.ID, original, tree)

	payload := events.TeamUpdatedPayload{Name: team.Name}
	if renamed {
		payload.OldName = oldName
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventTeamUpdated,
		TeamID:  team.ID,
		Actor:   actor(form),
		Payload: payload,
	})
	s.publishReconciled(ctx, team.ID, form, result)

	return &SubmitResult{TeamID: team.ID, Warnings: result.Warnings()}, nil
}

// ListTeams returns the teams visible in a scope.
func (s *TeamService) ListTeams(ctx context.Context, scope domain.TeamScope) ([]domain.Team, error) {
	teams, err := s.store.ListTeams(ctx, store.TeamFilter{
		TenantID:     scope.TenantID,
		BranchID:     scope.BranchID,
		DepartmentID: scope.DepartmentID,
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return teams, nil
}

// GetTeam fetches a team with its hierarchy, scoped to the caller's tenant.
func (s *TeamService) GetTeam(ctx context.Context, tenantID, teamID string) (*domain.Team, *domain.HierarchyTree, error) {
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, nil, mapStoreErr(err)
	}
	if team.TenantID != tenantID {
		return nil, nil, errorutil.NewNotFound("team", nil)
	}
	tree, err := s.store.GetHierarchy(ctx, teamID)
	if err != nil {
		return nil, nil, mapStoreErr(err)
	}
	return team, tree, nil
}

// DeleteTeam tears down the hierarchy bottom-up, then removes the team.
func (s *TeamService) DeleteTeam(ctx context.Context, tenantID, teamID, actorUserID string) error {
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return mapStoreErr(err)
	}
	if team.TenantID != tenantID {
		return errorutil.NewNotFound("team", nil)
	}

	current, err := s.store.GetHierarchy(ctx, teamID)
	if err != nil {
		return mapStoreErr(err)
	}
	result, _ := s.engine.Reconcile(ctx, teamID, current, &domain.HierarchyTree{})
	if !result.FullySucceeded() {
		return errorutil.NewConflict("team hierarchy could not be fully removed", map[string]any{
			"warnings": result.Warnings(),
		})
	}

	if err := s.store.DeleteTeam(ctx, teamID); err != nil {
		return mapStoreErr(err)
	}
	s.detector.Invalidate(ctx, team.Scope())

	s.publishEvent(ctx, events.Event{
		Type:    events.EventTeamDeleted,
		TeamID:  teamID,
		Actor:   events.Actor{UserID: actorUserID, TenantID: tenantID},
		Payload: events.TeamDeletedPayload{Name: team.Name},
	})
	return nil
}

// CheckName classifies a candidate name for inline validation.
func (s *TeamService) CheckName(ctx context.Context, scope domain.TeamScope, name string) (*NameCheckResult, error) {
	normalized := namecheck.Normalize(name)
	if normalized == "" {
		return nil, errorutil.NewValidationError("name is required", nil)
	}
	return &NameCheckResult{
		Exists:  s.detector.CheckExists(ctx, normalized, scope),
		Similar: similarNames(s.detector.FindSimilar(ctx, normalized, scope)),
	}, nil
}

func (s *TeamService) validate(form SubmitForm, tree *domain.HierarchyTree) map[string][]string {
	fieldErrs := map[string][]string{}
	if namecheck.Normalize(form.Name) == "" {
		fieldErrs["name"] = append(fieldErrs["name"], "name is required")
	}
	if vr := tree.Validate(); !vr.Valid() {
		for field, msgs := range vr.FieldMap() {
			fieldErrs[field] = append(fieldErrs[field], msgs...)
		}
	}
	return fieldErrs
}

func (s *TeamService) publishReconciled(ctx context.Context, teamID string, form SubmitForm, result reconcile.Result) {
	s.publishEvent(ctx, events.Event{
		Type:   events.EventHierarchyReconciled,
		TeamID: teamID,
		Actor:  actor(form),
		Payload: events.HierarchyReconciledPayload{
			Applied:  len(result.Applied),
			Failed:   len(result.Failed),
			Warnings: result.Warnings(),
		},
	})
}

func (s *TeamService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// mapStoreErr translates store boundary sentinels into domain errors.
func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errorutil.NewNotFound("team", nil)
	case errors.Is(err, store.ErrConflict):
		return errorutil.NewConflict(err.Error(), nil)
	default:
		return errorutil.MapError(err)
	}
}

func similarNames(teams []domain.Team) []string {
	if len(teams) == 0 {
		return nil
	}
	names := make([]string, 0, len(teams))
	for i := range teams {
		names = append(names, teams[i].Name)
	}
	return names
}

func actor(form SubmitForm) events.Actor {
	return events.Actor{UserID: form.ActorUserID, TenantID: form.Scope.TenantID}
}
