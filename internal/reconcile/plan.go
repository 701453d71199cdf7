package reconcile

import (
	"fmt"

	"github.com/spec-kit/team-hierarchy-service/internal/domain"
)

// OpKind names a reconciliation operation.
type OpKind string

const (
	OpCreateManager  OpKind = "create_manager"
	OpCreateTeamLead OpKind = "create_team_lead"
	OpCreateMember   OpKind = "create_member"
	OpDeleteManager  OpKind = "delete_manager"
	OpDeleteTeamLead OpKind = "delete_team_lead"
	OpDeleteMember   OpKind = "delete_member"
)

// Operation is one unit of work against the team store. For deletes, Target
// is the persisted id to remove and Parent links to the node whose own delete
// depends on this one. For creates, Target is the pending id the operation
// resolves and Parent is the node id of the parent in the current tree, which
// may itself be pending and is resolved at execution time.
type Operation struct {
	Kind   OpKind
	UserID string
	Target domain.NodeID
	Parent domain.NodeID
}

func (op Operation) String() string {
	return fmt.Sprintf("%s user=%s target=%s", op.Kind, op.UserID, op.Target)
}

// Lineage is the work for one manager subtree. Lineages are independent of
// each other and may execute concurrently; within a lineage, deletes run
// bottom-up before creates run top-down.
type Lineage struct {
	ManagerUserID string
	Deletes       []Operation
	Creates       []Operation
}

// Plan is the full set of operations transforming the persisted hierarchy
// into the edited one.
type Plan struct {
	Lineages []Lineage

	// Resolved maps pending id values to persisted store ids for nodes that
	// matched an original node by userID and parent: they need no operation,
	// only their id carried over.
	Resolved map[string]string
}

// Empty reports whether the plan contains no operations.
func (p Plan) Empty() bool {
	for _, l := range p.Lineages {
		if len(l.Deletes) > 0 || len(l.Creates) > 0 {
			return false
		}
	}
	return true
}

// Operations flattens the plan in deterministic order, deletes before
// creates per lineage. For logging and assertions; execution uses lineages.
func (p Plan) Operations() []Operation {
	var out []Operation
	for _, l := range p.Lineages {
		out = append(out, l.Deletes...)
	}
	for _, l := range p.Lineages {
		out = append(out, l.Creates...)
	}
	return out
}

// BuildPlan diffs the hierarchy last known to the store against the edited
// one. Node identity is userID plus parent linkage; pending ids are never
// compared against persisted ids. A user moved to a different parent shows up
// as a delete under the old parent and a create under the new one.
func BuildPlan(original, current *domain.HierarchyTree) Plan {
	if original == nil {
		original = domain.NewHierarchyTree()
	}
	if current == nil {
		current = domain.NewHierarchyTree()
	}

	plan := Plan{Resolved: make(map[string]string)}
	seen := make(map[string]bool)

	for i := range original.Managers {
		om := &original.Managers[i]
		seen[om.UserID] = true
		cm, ok := current.ManagerByUser(om.UserID)
		if !ok {
			plan.Lineages = append(plan.Lineages, deleteLineage(om))
			continue
		}
		plan.Lineages = append(plan.Lineages, diffLineage(om, &cm, plan.Resolved))
	}

	for i := range current.Managers {
		cm := &current.Managers[i]
		if seen[cm.UserID] {
			continue
		}
		plan.Lineages = append(plan.Lineages, createLineage(cm))
	}

	return plan
}

// deleteLineage schedules removal of a whole manager subtree, children first.
func deleteLineage(om *domain.ManagerNode) Lineage {
	l := Lineage{ManagerUserID: om.UserID}
	for i := range om.TeamLeads {
		l.Deletes = append(l.Deletes, deleteLeadOps(om.ID, &om.TeamLeads[i])...)
	}
	if om.ID.Persisted() {
		l.Deletes = append(l.Deletes, Operation{Kind: OpDeleteManager, UserID: om.UserID, Target: om.ID})
	}
	return l
}

// createLineage schedules creation of a whole manager subtree, parents first.
func createLineage(cm *domain.ManagerNode) Lineage {
	l := Lineage{ManagerUserID: cm.UserID}
	if !cm.ID.Persisted() {
		l.Creates = append(l.Creates, Operation{Kind: OpCreateManager, UserID: cm.UserID, Target: cm.ID})
	}
	for i := range cm.TeamLeads {
		l.Creates = append(l.Creates, createLeadOps(cm.ID, &cm.TeamLeads[i])...)
	}
	return l
}

// diffLineage reconciles one manager present in both trees.
func diffLineage(om, cm *domain.ManagerNode, resolved map[string]string) Lineage {
	l := Lineage{ManagerUserID: om.UserID}
	if !cm.ID.Persisted() && om.ID.Persisted() {
		resolved[cm.ID.Value()] = om.ID.Value()
	}

	seenLeads := make(map[string]bool)
	for i := range om.TeamLeads {
		ol := &om.TeamLeads[i]
		seenLeads[ol.UserID] = true
		cl, ok := cm.TeamLeadByUser(ol.UserID)
		if !ok {
			l.Deletes = append(l.Deletes, deleteLeadOps(om.ID, ol)...)
			continue
		}
		if !cl.ID.Persisted() && ol.ID.Persisted() {
			resolved[cl.ID.Value()] = ol.ID.Value()
		}

		seenMembers := make(map[string]bool)
		for j := range ol.Members {
			omem := &ol.Members[j]
			seenMembers[omem.UserID] = true
			cmem, ok := cl.MemberByUser(omem.UserID)
			if !ok {
				if omem.ID.Persisted() {
					l.Deletes = append(l.Deletes, Operation{Kind: OpDeleteMember, UserID: omem.UserID, Target: omem.ID, Parent: ol.ID})
				}
				continue
			}
			if !cmem.ID.Persisted() && omem.ID.Persisted() {
				resolved[cmem.ID.Value()] = omem.ID.Value()
			}
		}
		leadID := cl.ID
		if !leadID.Persisted() {
			leadID = ol.ID
		}
		for j := range cl.Members {
			cmem := &cl.Members[j]
			if seenMembers[cmem.UserID] || cmem.ID.Persisted() {
				continue
			}
			l.Creates = append(l.Creates, Operation{Kind: OpCreateMember, UserID: cmem.UserID, Target: cmem.ID, Parent: leadID})
		}
	}

	managerID := cm.ID
	if !managerID.Persisted() {
		managerID = om.ID
	}
	for i := range cm.TeamLeads {
		cl := &cm.TeamLeads[i]
		if seenLeads[cl.UserID] {
			continue
		}
		l.Creates = append(l.Creates, createLeadOps(managerID, cl)...)
	}
	return l
}

func deleteLeadOps(managerID domain.NodeID, ol *domain.TeamLeadNode) []Operation {
	var ops []Operation
	for i := range ol.Members {
		if ol.Members[i].ID.Persisted() {
			ops = append(ops, Operation{Kind: OpDeleteMember, UserID: ol.Members[i].UserID, Target: ol.Members[i].ID, Parent: ol.ID})
		}
	}
	if ol.ID.Persisted() {
		ops = append(ops, Operation{Kind: OpDeleteTeamLead, UserID: ol.UserID, Target: ol.ID, Parent: managerID})
	}
	return ops
}

func createLeadOps(managerID domain.NodeID, cl *domain.TeamLeadNode) []Operation {
	var ops []Operation
	if !cl.ID.Persisted() {
		ops = append(ops, Operation{Kind: OpCreateTeamLead, UserID: cl.UserID, Target: cl.ID, Parent: managerID})
	}
	for i := range cl.Members {
		if !cl.Members[i].ID.Persisted() {
			ops = append(ops, Operation{Kind: OpCreateMember, UserID: cl.Members[i].UserID, Target: cl.Members[i].ID, Parent: cl.ID})
		}
	}
	return ops
}
