package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/team-hierarchy-service/internal/domain"
	"github.com/spec-kit/team-hierarchy-service/internal/store"
)

func (r *PGTeamStore) GetHierarchy(ctx context.Context, teamID string) (*domain.HierarchyTree, error) {
	tree := &domain.HierarchyTree{}

	mgrRows, err := r.pool.Query(ctx,
		`SELECT id, user_id FROM team_managers WHERE team_id=$1 ORDER BY created_at, id`, teamID)
	if err != nil {
		return nil, err
	}
	defer mgrRows.Close()

	managerIdx := map[string]int{}
	for mgrRows.Next() {
		var id, userID string
		if err := mgrRows.Scan(&id, &userID); err != nil {
			return nil, err
		}
		managerIdx[id] = len(tree.Managers)
		tree.Managers = append(tree.Managers, domain.ManagerNode{
			ID:     domain.PersistedID(id),
			UserID: userID,
		})
	}
	if err := mgrRows.Err(); err != nil {
		return nil, err
	}

	leadRows, err := r.pool.Query(ctx,
		`SELECT id, manager_id, user_id FROM team_leads WHERE team_id=$1 ORDER BY created_at, id`, teamID)
	if err != nil {
		return nil, err
	}
	defer leadRows.Close()

	type leadPos struct{ mi, li int }
	leadIdx := map[string]leadPos{}
	for leadRows.Next() {
		var id, managerID, userID string
		if err := leadRows.Scan(&id, &managerID, &userID); err != nil {
			return nil, err
		}
		mi, ok := managerIdx[managerID]
		if !ok {
			return nil, fmt.Errorf("team lead %s references unknown manager %s", id, managerID)
		}
		mgr := &tree.Managers[mi]
		leadIdx[id] = leadPos{mi: mi, li: len(mgr.TeamLeads)}
		mgr.TeamLeads = append(mgr.TeamLeads, domain.TeamLeadNode{
			ID:     domain.PersistedID(id),
			UserID: userID,
		})
	}
	if err := leadRows.Err(); err != nil {
		return nil, err
	}

	memberRows, err := r.pool.Query(ctx,
		`SELECT id, team_lead_id, user_id FROM team_members WHERE team_id=$1 ORDER BY created_at, id`, teamID)
	if err != nil {
		return nil, err
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var id, leadID, userID string
		if err := memberRows.Scan(&id, &leadID, &userID); err != nil {
			return nil, err
		}
		pos, ok := leadIdx[leadID]
		if !ok {
			return nil, fmt.Errorf("member %s references unknown team lead %s", id, leadID)
		}
		lead := &tree.Managers[pos.mi].TeamLeads[pos.li]
		lead.Members = append(lead.Members, domain.MemberNode{
			ID:     domain.PersistedID(id),
			UserID: userID,
		})
	}
	return tree, memberRows.Err()
}

func (r *PGTeamStore) CreateManager(ctx context.Context, teamID, userID string) (domain.ManagerNode, error) {
	const query = `
        INSERT INTO team_managers (team_id, user_id) VALUES ($1,$2) RETURNING id`
	var id string
	if err := r.pool.QueryRow(ctx, query, teamID, userID).Scan(&id); err != nil {
		return domain.ManagerNode{}, mapPGError(err, "manager", userID)
	}
	return domain.ManagerNode{ID: domain.PersistedID(id), UserID: userID}, nil
}

func (r *PGTeamStore) DeleteManager(ctx context.Context, id string) error {
	return r.deleteNode(ctx, "team_managers", "manager", id)
}

func (r *PGTeamStore) CreateTeamLead(ctx context.Context, teamID, managerID, userID string) (domain.TeamLeadNode, error) {
	const query = `
        INSERT INTO team_leads (team_id, manager_id, user_id) VALUES ($1,$2,$3) RETURNING id`
	var id string
	if err := r.pool.QueryRow(ctx, query, teamID, managerID, userID).Scan(&id); err != nil {
		return domain.TeamLeadNode{}, mapPGError(err, "team lead", userID)
	}
	return domain.TeamLeadNode{ID: domain.PersistedID(id), UserID: userID}, nil
}

func (r *PGTeamStore) DeleteTeamLead(ctx context.Context, id string) error {
	return r.deleteNode(ctx, "team_leads", "team lead", id)
}

func (r *PGTeamStore) CreateMember(ctx context.Context, teamID, teamLeadID, userID string) (domain.MemberNode, error) {
	const query = `
        INSERT INTO team_members (team_id, team_lead_id, user_id) VALUES ($1,$2,$3) RETURNING id`
	var id string
	if err := r.pool.QueryRow(ctx, query, teamID, teamLeadID, userID).Scan(&id); err != nil {
		return domain.MemberNode{}, mapPGError(err, "member", userID)
	}
	return domain.MemberNode{ID: domain.PersistedID(id), UserID: userID}, nil
}

func (r *PGTeamStore) DeleteMember(ctx context.Context, id string) error {
	return r.deleteNode(ctx, "team_members", "member", id)
}

func (r *PGTeamStore) deleteNode(ctx context.Context, table, resource, id string) error {
	cmd, err := r.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id=$1", table), id)
	if err != nil {
		return mapPGError(err, resource, id)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", resource, id, store.ErrNotFound)
	}
	return nil
}
