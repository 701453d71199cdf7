package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// HierarchyLevel names the three fixed levels of a team hierarchy.
type HierarchyLevel string

const (
	LevelManager  HierarchyLevel = "manager"
	LevelTeamLead HierarchyLevel = "team_lead"
	LevelMember   HierarchyLevel = "member"
)

// NodeID identifies a hierarchy node. A node is either persisted (backed by a
// store record whose id we know) or pending (created locally in the current
// editing session, not yet written).
type NodeID struct {
	value     string
	persisted bool
}

// PersistedID wraps a store-assigned identifier.
func PersistedID(id string) NodeID {
	return NodeID{value: id, persisted: true}
}

// NewPendingID allocates a local marker for a node added in this session.
func NewPendingID() NodeID {
	return NodeID{value: uuid.NewString(), persisted: false}
}

// Persisted reports whether the node is backed by a store record.
func (id NodeID) Persisted() bool { return id.persisted }

// Value returns the store id for persisted nodes, or the local marker for
// pending ones. Pending markers must never be sent to the store.
func (id NodeID) Value() string { return id.value }

func (id NodeID) String() string {
	if id.persisted {
		return id.value
	}
	return "pending:" + id.value
}

// IsZero reports whether the id is unset.
func (id NodeID) IsZero() bool { return id.value == "" }

// MemberNode is a leaf of the hierarchy wrapping one user.
type MemberNode struct {
	ID     NodeID
	UserID string
}

// TeamLeadNode groups the members reporting to one team lead.
type TeamLeadNode struct {
	ID      NodeID
	UserID  string
	Members []MemberNode
}

// ManagerNode groups the team leads reporting to one manager.
type ManagerNode struct {
	ID        NodeID
	UserID    string
	TeamLeads []TeamLeadNode
}

// HierarchyTree is the in-memory model of one team's Manager -> TeamLead ->
// Member structure. Mutations enforce that a user occupies at most one node
// per level across the whole tree. The tree is private to one editing
// session; mutations are applied synchronously, one at a time.
type HierarchyTree struct {
	Managers []ManagerNode
}

// NewHierarchyTree returns an empty tree for the create flow.
func NewHierarchyTree() *HierarchyTree {
	return &HierarchyTree{}
}

// DuplicateAssignmentError signals that a user already occupies a node at the
// given level somewhere in the tree.
type DuplicateAssignmentError struct {
	Level  HierarchyLevel
	UserID string
}

func (e *DuplicateAssignmentError) Error() string {
	return fmt.Sprintf("user %s is already assigned as %s", e.UserID, e.Level)
}

// NodeNotFoundError signals a mutation against a node id that does not exist.
// This is a programming error in the caller, not a user-facing condition.
type NodeNotFoundError struct {
	Level HierarchyLevel
	ID    NodeID
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found in tree", e.Level, e.ID)
}

// AddManager appends a manager with a pending id and no team leads.
func (t *HierarchyTree) AddManager(userID string) (ManagerNode, error) {
	for i := range t.Managers {
		if t.Managers[i].UserID == userID {
			return ManagerNode{}, &DuplicateAssignmentError{Level: LevelManager, UserID: userID}
		}
	}
	node := ManagerNode{ID: NewPendingID(), UserID: userID}
	t.Managers = append(t.Managers, node)
	return node, nil
}

// RemoveManager removes the manager and, with it, every team lead and member
// underneath. The tree is updated in a single assignment so observers never
// see a partially-removed state.
func (t *HierarchyTree) RemoveManager(managerID NodeID) error {
	idx := t.managerIndex(managerID)
	if idx < 0 {
		return &NodeNotFoundError{Level: LevelManager, ID: managerID}
	}
	next := make([]ManagerNode, 0, len(t.Managers)-1)
	next = append(next, t.Managers[:idx]...)
	next = append(next, t.Managers[idx+1:]...)
	t.Managers = next
	return nil
}

// AddTeamLead appends a team lead with a pending id under the given manager.
// The duplicate check spans all managers: a team lead reports to exactly one.
func (t *HierarchyTree) AddTeamLead(managerID NodeID, userID string) (TeamLeadNode, error) {
	idx := t.managerIndex(managerID)
	if idx < 0 {
		return TeamLeadNode{}, &NodeNotFoundError{Level: LevelManager, ID: managerID}
	}
	for i := range t.Managers {
		for j := range t.Managers[i].TeamLeads {
			if t.Managers[i].TeamLeads[j].UserID == userID {
				return TeamLeadNode{}, &DuplicateAssignmentError{Level: LevelTeamLead, UserID: userID}
			}
		}
	}
	node := TeamLeadNode{ID: NewPendingID(), UserID: userID}
	t.Managers[idx].TeamLeads = append(t.Managers[idx].TeamLeads, node)
	return node, nil
}

// RemoveTeamLead removes the team lead and all members underneath it from the
// given manager.
func (t *HierarchyTree) RemoveTeamLead(managerID, teamLeadID NodeID) error {
	mi := t.managerIndex(managerID)
	if mi < 0 {
		return &NodeNotFoundError{Level: LevelManager, ID: managerID}
	}
	leads := t.Managers[mi].TeamLeads
	li := -1
	for i := range leads {
		if leads[i].ID == teamLeadID {
			li = i
			break
		}
	}
	if li < 0 {
		return &NodeNotFoundError{Level: LevelTeamLead, ID: teamLeadID}
	}
	next := make([]TeamLeadNode, 0, len(leads)-1)
	next = append(next, leads[:li]...)
	next = append(next, leads[li+1:]...)
	t.Managers[mi].TeamLeads = next
	return nil
}

// AddMember appends a member with a pending id under the given team lead. The
// duplicate check spans all team leads: a member reports to exactly one.
func (t *HierarchyTree) AddMember(teamLeadID NodeID, userID string) (MemberNode, error) {
	mi, li := t.teamLeadIndex(teamLeadID)
	if mi < 0 {
		return MemberNode{}, &NodeNotFoundError{Level: LevelTeamLead, ID: teamLeadID}
	}
	for i := range t.Managers {
		for j := range t.Managers[i].TeamLeads {
			for k := range t.Managers[i].TeamLeads[j].Members {
				if t.Managers[i].TeamLeads[j].Members[k].UserID == userID {
					return MemberNode{}, &DuplicateAssignmentError{Level: LevelMember, UserID: userID}
				}
			}
		}
	}
	node := MemberNode{ID: NewPendingID(), UserID: userID}
	t.Managers[mi].TeamLeads[li].Members = append(t.Managers[mi].TeamLeads[li].Members, node)
	return node, nil
}

// RemoveMember removes the member from the given team lead.
func (t *HierarchyTree) RemoveMember(teamLeadID, memberID NodeID) error {
	mi, li := t.teamLeadIndex(teamLeadID)
	if mi < 0 {
		return &NodeNotFoundError{Level: LevelTeamLead, ID: teamLeadID}
	}
	members := t.Managers[mi].TeamLeads[li].Members
	idx := -1
	for i := range members {
		if members[i].ID == memberID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &NodeNotFoundError{Level: LevelMember, ID: memberID}
	}
	next := make([]MemberNode, 0, len(members)-1)
	next = append(next, members[:idx]...)
	next = append(next, members[idx+1:]...)
	t.Managers[mi].TeamLeads[li].Members = next
	return nil
}

// ValidationError describes one submit-time validation failure, keyed by the
// form field it belongs to.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationResult collects submit-time validation failures.
type ValidationResult struct {
	Errors []ValidationError
}

// Valid reports whether the tree passed validation.
func (r ValidationResult) Valid() bool { return len(r.Errors) == 0 }

// FieldMap groups messages by field for inline display.
func (r ValidationResult) FieldMap() map[string][]string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, e := range r.Errors {
		out[e.Field] = append(out[e.Field], e.Message)
	}
	return out
}

// Validate checks submit-time completeness: at least one manager, every
// manager with at least one team lead, every team lead with at least one
// member. Empty team leads are legal mid-edit, so this is separate from the
// structural invariants the mutation methods enforce.
func (t *HierarchyTree) Validate() ValidationResult {
	var result ValidationResult
	if len(t.Managers) == 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "managers",
			Message: "at least one manager is required",
		})
		return result
	}
	for i := range t.Managers {
		manager := &t.Managers[i]
		if len(manager.TeamLeads) == 0 {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "teamLeads",
				Message: fmt.Sprintf("manager %s has no team leads", manager.UserID),
			})
			continue
		}
		for j := range manager.TeamLeads {
			lead := &manager.TeamLeads[j]
			if len(lead.Members) == 0 {
				result.Errors = append(result.Errors, ValidationError{
					Field:   "members",
					Message: fmt.Sprintf("team lead %s has no members", lead.UserID),
				})
			}
		}
	}
	return result
}

// Clone returns a deep copy of the tree.
func (t *HierarchyTree) Clone() *HierarchyTree {
	if t == nil {
		return nil
	}
	out := &HierarchyTree{Managers: make([]ManagerNode, len(t.Managers))}
	for i, m := range t.Managers {
		cm := ManagerNode{ID: m.ID, UserID: m.UserID, TeamLeads: make([]TeamLeadNode, len(m.TeamLeads))}
		for j, l := range m.TeamLeads {
			cl := TeamLeadNode{ID: l.ID, UserID: l.UserID, Members: make([]MemberNode, len(l.Members))}
			copy(cl.Members, l.Members)
			cm.TeamLeads[j] = cl
		}
		out.Managers[i] = cm
	}
	return out
}

// ManagerByUser returns the manager node occupied by userID, if any.
func (t *HierarchyTree) ManagerByUser(userID string) (ManagerNode, bool) {
	for i := range t.Managers {
		if t.Managers[i].UserID == userID {
			return t.Managers[i], true
		}
	}
	return ManagerNode{}, false
}

// TeamLeadByUser returns the team lead node occupied by userID under the
// given manager, if any.
func (m *ManagerNode) TeamLeadByUser(userID string) (TeamLeadNode, bool) {
	for i := range m.TeamLeads {
		if m.TeamLeads[i].UserID == userID {
			return m.TeamLeads[i], true
		}
	}
	return TeamLeadNode{}, false
}

// MemberByUser returns the member node occupied by userID under the given
// team lead, if any.
func (l *TeamLeadNode) MemberByUser(userID string) (MemberNode, bool) {
	for i := range l.Members {
		if l.Members[i].UserID == userID {
			return l.Members[i], true
		}
	}
	return MemberNode{}, false
}

func (t *HierarchyTree) managerIndex(id NodeID) int {
	for i := range t.Managers {
		if t.Managers[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *HierarchyTree) teamLeadIndex(id NodeID) (managerIdx, leadIdx int) {
	for i := range t.Managers {
		for j := range t.Managers[i].TeamLeads {
			if t.Managers[i].TeamLeads[j].ID == id {
				return i, j
			}
		}
	}
	return -1, -1
}
