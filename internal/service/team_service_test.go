package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/team-hierarchy-service/internal/domain"
	"github.com/spec-kit/team-hierarchy-service/internal/events"
	"github.com/spec-kit/team-hierarchy-service/internal/namecheck"
	"github.com/spec-kit/team-hierarchy-service/internal/reconcile"
	"github.com/spec-kit/team-hierarchy-service/internal/store"
	"github.com/spec-kit/team-hierarchy-service/pkg/util/errorutil"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) byType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(t *testing.T) (*TeamService, *store.MemoryStore, *eventRecorder) {
	t.Helper()
	mem := store.NewMemoryStore()
	detector := namecheck.NewDetector(namecheck.DetectorDependencies{
		Store:   mem,
		Matcher: namecheck.NewMatcher(namecheck.DefaultMaxDistance),
	})
	engine := reconcile.NewEngine(reconcile.EngineDependencies{Store: mem})

	rec := &eventRecorder{}
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{
		events.EventTeamCreated,
		events.EventTeamUpdated,
		events.EventTeamDeleted,
		events.EventHierarchyReconciled,
	} {
		dispatcher.Subscribe(et, rec.record)
	}

	svc := NewTeamService(TeamDependencies{
		Store:      mem,
		Detector:   detector,
		Engine:     engine,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
	return svc, mem, rec
}

func testScope() domain.TeamScope {
	return domain.TeamScope{TenantID: "tenant-1", BranchID: "branch-1", DepartmentID: "dept-1"}
}

func fullTree(t *testing.T) *domain.HierarchyTree {
	t.Helper()
	tree := domain.NewHierarchyTree()
	mgr, err := tree.AddManager("mgr-1")
	require.NoError(t, err)
	lead, err := tree.AddTeamLead(mgr.ID, "lead-1")
	require.NoError(t, err)
	_, err = tree.AddMember(lead.ID, "member-1")
	require.NoError(t, err)
	_, err = tree.AddMember(lead.ID, "member-2")
	require.NoError(t, err)
	return tree
}

func TestSubmit_CreateFlow(t *testing.T) {
	svc, mem, rec := newTestService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, SubmitForm{
		Scope:       testScope(),
		Name:        "  sales   team  ",
		Hierarchy:   fullTree(t),
		ActorUserID: "admin-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.TeamID)
	assert.Empty(t, result.Warnings)
	assert.False(t, result.NeedsConfirmation)

	team, err := mem.GetTeam(ctx, result.TeamID)
	require.NoError(t, err)
	assert.Equal(t, "Sales Team", team.Name)

	tree, err := mem.GetHierarchy(ctx, result.TeamID)
	require.NoError(t, err)
	require.Len(t, tree.Managers, 1)
	require.Len(t, tree.Managers[0].TeamLeads, 1)
	assert.Len(t, tree.Managers[0].TeamLeads[0].Members, 2)

	created := rec.byType(events.EventTeamCreated)
	require.Len(t, created, 1)
	assert.Equal(t, result.TeamID, created[0].TeamID)
	assert.Equal(t, "admin-1", created[0].Actor.UserID)

	reconciled := rec.byType(events.EventHierarchyReconciled)
	require.Len(t, reconciled, 1)
	payload := reconciled[0].Payload.(events.HierarchyReconciledPayload)
	assert.Equal(t, 4, payload.Applied)
	assert.Zero(t, payload.Failed)
}

func TestSubmit_ValidationErrors(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), SubmitForm{
		Scope: testScope(),
		Name:  "   ",
	})
	require.Error(t, err)

	de := errorutil.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Contains(t, de.Details, "name")
	assert.Contains(t, de.Details, "managers")
}

func TestSubmit_DuplicateNameBlocks(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitForm{Scope: testScope(), Name: "Sales Team", Hierarchy: fullTree(t)})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, SubmitForm{Scope: testScope(), Name: "sales   TEAM", Hierarchy: fullTree(t)})
	require.Error(t, err)
	assert.Equal(t, "DUPLICATE_NAME", errorutil.ToDomainError(err).Code)
}

func TestSubmit_DuplicateAllowedInOtherScope(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitForm{Scope: testScope(), Name: "Sales Team", Hierarchy: fullTree(t)})
	require.NoError(t, err)

	other := testScope()
	other.DepartmentID = "dept-2"
	result, err := svc.Submit(ctx, SubmitForm{Scope: other, Name: "Sales Team", Hierarchy: fullTree(t)})
	require.NoError(t, err)
	assert.NotEmpty(t, result.TeamID)
}

func TestSubmit_SimilarNeedsConfirmation(t *testing.T) {
	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitForm{Scope: testScope(), Name: "Sales Team", Hierarchy: fullTree(t)})
	require.NoError(t, err)

	unconfirmed, err := svc.Submit(ctx, SubmitForm{Scope: testScope(), Name: "Sale Team", Hierarchy: fullTree(t)})
	require.NoError(t, err)
	assert.True(t, unconfirmed.NeedsConfirmation)
	assert.Equal(t, []string{"Sales Team"}, unconfirmed.SimilarNames)
	assert.Empty(t, unconfirmed.TeamID)

	teams, err := mem.ListTeams(ctx, store.TeamFilter{TenantID: "tenant-1", BranchID: "branch-1", DepartmentID: "dept-1"})
	require.NoError(t, err)
	assert.Len(t, teams, 1)

	confirmed, err := svc.Submit(ctx, SubmitForm{
		Scope:          testScope(),
		Name:           "Sale Team",
		Hierarchy:      fullTree(t),
		ConfirmSimilar: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, confirmed.TeamID)
	assert.False(t, confirmed.NeedsConfirmation)
}

func TestSubmit_EditFlowReconciles(t *testing.T) {
	svc, mem, rec := newTestService(t)
	ctx := context.Background()

	created, err := svc.Submit(ctx, SubmitForm{Scope: testScope(), Name: "Sales Team", Hierarchy: fullTree(t)})
	require.NoError(t, err)

	stored, err := mem.GetHierarchy(ctx, created.TeamID)
	require.NoError(t, err)

	// drop member-1 and introduce a second lead under the same manager
	edited := stored.Clone()
	mgr := edited.Managers[0]
	lead := mgr.TeamLeads[0]
	member, ok := lead.MemberByUser("member-1")
	require.True(t, ok)
	require.NoError(t, edited.RemoveMember(lead.ID, member.ID))
	newLead, err := edited.AddTeamLead(mgr.ID, "lead-2")
	require.NoError(t, err)
	_, err = edited.AddMember(newLead.ID, "member-3")
	require.NoError(t, err)

	mem.Ops = nil
	result, err := svc.Submit(ctx, SubmitForm{
		TeamID:    created.TeamID,
		Scope:     testScope(),
		Name:      "Sales Team",
		Hierarchy: edited,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	assert.Equal(t, []string{
		"updateTeam:" + created.TeamID,
		"deleteMember:member-1",
		"createTeamLead:lead-2",
		"createMember:member-3",
	}, mem.Ops)

	final, err := mem.GetHierarchy(ctx, created.TeamID)
	require.NoError(t, err)
	require.Len(t, final.Managers, 1)
	require.Len(t, final.Managers[0].TeamLeads, 2)

	updated := rec.byType(events.EventTeamUpdated)
	require.Len(t, updated, 1)
	payload := updated[0].Payload.(events.TeamUpdatedPayload)
	assert.Equal(t, "Sales Team", payload.Name)
	assert.Empty(t, payload.OldName)
}

func TestSubmit_RenameEmitsOldName(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	created, err := svc.Submit(ctx, SubmitForm{Scope: testScope(), Name: "Sales Team", Hierarchy: fullTree(t)})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, SubmitForm{
		TeamID:    created.TeamID,
		Scope:     testScope(),
		Name:      "Revenue Team",
		Hierarchy: fullTree(t),
	})
	require.NoError(t, err)

	updated := rec.byType(events.EventTeamUpdated)
	require.Len(t, updated, 1)
	payload := updated[0].Payload.(events.TeamUpdatedPayload)
	assert.Equal(t, "Revenue Team", payload.Name)
	assert.Equal(t, "Sales Team", payload.OldName)
}

func TestSubmit_PartialFailureSurfacesWarnings(t *testing.T) {
	svc, mem, rec := newTestService(t)
	ctx := context.Background()

	mem.FailOn["createTeamLead:lead-1"] = true

	result, err := svc.Submit(ctx, SubmitForm{Scope: testScope(), Name: "Sales Team", Hierarchy: fullTree(t)})
	require.NoError(t, err)
	require.NotEmpty(t, result.TeamID)
	// the lead create fails and both dependent members are skipped
	assert.Len(t, result.Warnings, 3)

	reconciled := rec.byType(events.EventHierarchyReconciled)
	require.Len(t, reconciled, 1)
	payload := reconciled[0].Payload.(events.HierarchyReconciledPayload)
	assert.Equal(t, 1, payload.Applied)
	assert.Equal(t, 3, payload.Failed)
}

func TestGetTeam_TenantIsolation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Submit(ctx, SubmitForm{Scope: testScope(), Name: "Sales Team", Hierarchy: fullTree(t)})
	require.NoError(t, err)

	_, _, err = svc.GetTeam(ctx, "tenant-2", created.TeamID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", errorutil.ToDomainError(err).Code)
}

func TestDeleteTeam_RemovesHierarchyFirst(t *testing.T) {
	svc, mem, rec := newTestService(t)
	ctx := context.Background()

	created, err := svc.Submit(ctx, SubmitForm{Scope: testScope(), Name: "Sales Team", Hierarchy: fullTree(t)})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTeam(ctx, "tenant-1", created.TeamID, "admin-1"))

	_, err = mem.GetTeam(ctx, created.TeamID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	deleted := rec.byType(events.EventTeamDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, "Sales Team", deleted[0].Payload.(events.TeamDeletedPayload).Name)
}

func TestCheckName_Classification(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitForm{Scope: testScope(), Name: "Sales Team", Hierarchy: fullTree(t)})
	require.NoError(t, err)

	exact, err := svc.CheckName(ctx, testScope(), " sales  team ")
	require.NoError(t, err)
	assert.True(t, exact.Exists)

	similar, err := svc.CheckName(ctx, testScope(), "Sale Team")
	require.NoError(t, err)
	assert.False(t, similar.Exists)
	assert.Equal(t, []string{"Sales Team"}, similar.Similar)

	_, err = svc.CheckName(ctx, testScope(), "   ")
	require.Error(t, err)
}
