package namecheck

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/team-hierarchy-service/internal/domain"
	"github.com/spec-kit/team-hierarchy-service/internal/store"
)

var testScope = domain.TeamScope{TenantID: "t1", BranchID: "b1", DepartmentID: "d1"}

func seedTeam(t *testing.T, s *store.MemoryStore, name string, scope domain.TeamScope) {
	t.Helper()
	team := &domain.Team{
		TenantID:     scope.TenantID,
		BranchID:     scope.BranchID,
		DepartmentID: scope.DepartmentID,
		Name:         name,
	}
	require.NoError(t, s.CreateTeam(context.Background(), team))
}

func newDetector(s store.TeamStore) *Detector {
	return NewDetector(DetectorDependencies{
		Store:   s,
		Matcher: NewMatcher(3),
	})
}

func TestCheckExistsNormalizedMatch(t *testing.T) {
	s := store.NewMemoryStore()
	seedTeam(t, s, "Sales  Team", testScope)
	d := newDetector(s)

	assert.True(t, d.CheckExists(context.Background(), "sales team", testScope))
	assert.True(t, d.CheckExists(context.Background(), " SALES  TEAM ", testScope))
	assert.False(t, d.CheckExists(context.Background(), "Support Team", testScope))
}

func TestCheckExistsScopeIsolation(t *testing.T) {
	s := store.NewMemoryStore()
	seedTeam(t, s, "Sales Team", testScope)
	d := newDetector(s)

	otherBranch := domain.TeamScope{TenantID: "t1", BranchID: "b2", DepartmentID: "d1"}
	otherTenant := domain.TeamScope{TenantID: "t2", BranchID: "b1", DepartmentID: "d1"}
	assert.False(t, d.CheckExists(context.Background(), "Sales Team", otherBranch))
	assert.False(t, d.CheckExists(context.Background(), "Sales Team", otherTenant))
}

func TestFindSimilarNearDuplicate(t *testing.T) {
	s := store.NewMemoryStore()
	seedTeam(t, s, "Sales Team", testScope)
	d := newDetector(s)

	assert.False(t, d.CheckExists(context.Background(), "Sale Team", testScope))
	similar := d.FindSimilar(context.Background(), "Sale Team", testScope)
	require.Len(t, similar, 1)
	assert.Equal(t, "Sales Team", similar[0].Name)
}

func TestFindSimilarExcludesExactMatch(t *testing.T) {
	s := store.NewMemoryStore()
	seedTeam(t, s, "Sales Team", testScope)
	d := newDetector(s)

	assert.Empty(t, d.FindSimilar(context.Background(), "sales team", testScope))
}

func TestDetectorFailsOpen(t *testing.T) {
	s := store.NewMemoryStore()
	s.ListErr = errors.New("backend unavailable")
	d := newDetector(s)

	assert.False(t, d.CheckExists(context.Background(), "Sales Team", testScope))
	assert.Empty(t, d.FindSimilar(context.Background(), "Sales Team", testScope))
}

func TestDetectorEmptyCandidate(t *testing.T) {
	s := store.NewMemoryStore()
	seedTeam(t, s, "Sales Team", testScope)
	d := newDetector(s)

	assert.False(t, d.CheckExists(context.Background(), "   ", testScope))
	assert.Empty(t, d.FindSimilar(context.Background(), "", testScope))
}
