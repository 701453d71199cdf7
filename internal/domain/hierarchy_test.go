package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T) (*HierarchyTree, ManagerNode, TeamLeadNode) {
	t.Helper()
	tree := NewHierarchyTree()
	manager, err := tree.AddManager("u-manager")
	require.NoError(t, err)
	lead, err := tree.AddTeamLead(manager.ID, "u-lead")
	require.NoError(t, err)
	_, err = tree.AddMember(lead.ID, "u-member-1")
	require.NoError(t, err)
	_, err = tree.AddMember(lead.ID, "u-member-2")
	require.NoError(t, err)
	return tree, manager, lead
}

func TestAddManagerRejectsDuplicateUser(t *testing.T) {
	tree := NewHierarchyTree()
	_, err := tree.AddManager("u1")
	require.NoError(t, err)

	_, err = tree.AddManager("u1")
	var dup *DuplicateAssignmentError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, LevelManager, dup.Level)
	assert.Equal(t, "u1", dup.UserID)
}

func TestAddTeamLeadRejectsDuplicateAcrossManagers(t *testing.T) {
	tree := NewHierarchyTree()
	m1, err := tree.AddManager("u1")
	require.NoError(t, err)
	m2, err := tree.AddManager("u2")
	require.NoError(t, err)

	_, err = tree.AddTeamLead(m1.ID, "lead")
	require.NoError(t, err)

	// same user under a different manager is still a duplicate
	_, err = tree.AddTeamLead(m2.ID, "lead")
	var dup *DuplicateAssignmentError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, LevelTeamLead, dup.Level)
}

func TestAddMemberRejectsDuplicateAcrossTeamLeads(t *testing.T) {
	tree := NewHierarchyTree()
	m, err := tree.AddManager("u1")
	require.NoError(t, err)
	l1, err := tree.AddTeamLead(m.ID, "lead1")
	require.NoError(t, err)
	l2, err := tree.AddTeamLead(m.ID, "lead2")
	require.NoError(t, err)

	_, err = tree.AddMember(l1.ID, "member")
	require.NoError(t, err)
	_, err = tree.AddMember(l2.ID, "member")
	var dup *DuplicateAssignmentError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, LevelMember, dup.Level)
}

func TestAddTeamLeadUnknownManager(t *testing.T) {
	tree := NewHierarchyTree()
	_, err := tree.AddTeamLead(NewPendingID(), "lead")
	var nf *NodeNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, LevelManager, nf.Level)
}

func TestAddMemberUnknownTeamLead(t *testing.T) {
	tree := NewHierarchyTree()
	_, err := tree.AddMember(NewPendingID(), "member")
	var nf *NodeNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, LevelTeamLead, nf.Level)
}

func TestRemoveManagerCascades(t *testing.T) {
	tree, manager, _ := buildTree(t)

	require.NoError(t, tree.RemoveManager(manager.ID))
	assert.Empty(t, tree.Managers)

	// cascaded users are free to be re-added anywhere
	m2, err := tree.AddManager("u-member-1")
	require.NoError(t, err)
	_, err = tree.AddTeamLead(m2.ID, "u-lead")
	require.NoError(t, err)
}

func TestRemoveTeamLeadCascadesMembers(t *testing.T) {
	tree, manager, lead := buildTree(t)

	require.NoError(t, tree.RemoveTeamLead(manager.ID, lead.ID))
	require.Len(t, tree.Managers, 1)
	assert.Empty(t, tree.Managers[0].TeamLeads)

	lead2, err := tree.AddTeamLead(manager.ID, "u-lead-2")
	require.NoError(t, err)
	_, err = tree.AddMember(lead2.ID, "u-member-1")
	require.NoError(t, err)
}

func TestRemoveMember(t *testing.T) {
	tree, _, lead := buildTree(t)
	memberID := tree.Managers[0].TeamLeads[0].Members[0].ID

	require.NoError(t, tree.RemoveMember(lead.ID, memberID))
	assert.Len(t, tree.Managers[0].TeamLeads[0].Members, 1)

	err := tree.RemoveMember(lead.ID, memberID)
	var nf *NodeNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestValidateEmptyTree(t *testing.T) {
	tree := NewHierarchyTree()
	result := tree.Validate()
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "managers", result.Errors[0].Field)
	assert.False(t, result.Valid())
}

func TestValidateTeamLeadWithoutMembers(t *testing.T) {
	tree := NewHierarchyTree()
	m, err := tree.AddManager("u1")
	require.NoError(t, err)
	_, err = tree.AddTeamLead(m.ID, "lead")
	require.NoError(t, err)

	result := tree.Validate()
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "members", result.Errors[0].Field)
	assert.Contains(t, result.Errors[0].Message, "lead")

	fields := result.FieldMap()
	require.Contains(t, fields, "members")
}

func TestValidateManagerWithoutTeamLeads(t *testing.T) {
	tree := NewHierarchyTree()
	_, err := tree.AddManager("u1")
	require.NoError(t, err)

	result := tree.Validate()
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "teamLeads", result.Errors[0].Field)
}

func TestValidateCompleteTree(t *testing.T) {
	tree, _, _ := buildTree(t)
	assert.True(t, tree.Validate().Valid())
}

func TestCloneIsDeep(t *testing.T) {
	tree, manager, lead := buildTree(t)
	clone := tree.Clone()

	require.NoError(t, tree.RemoveTeamLead(manager.ID, lead.ID))

	require.Len(t, clone.Managers, 1)
	require.Len(t, clone.Managers[0].TeamLeads, 1)
	assert.Len(t, clone.Managers[0].TeamLeads[0].Members, 2)
}

func TestPendingAndPersistedIDs(t *testing.T) {
	pending := NewPendingID()
	assert.False(t, pending.Persisted())
	assert.False(t, pending.IsZero())

	persisted := PersistedID("42")
	assert.True(t, persisted.Persisted())
	assert.Equal(t, "42", persisted.Value())

	assert.NotEqual(t, NewPendingID(), NewPendingID())
}
