package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/team-hierarchy-service/internal/domain"
)

// MemoryStore is an in-memory TeamStore. It mirrors the backend's referential
// integrity rules: a node cannot be deleted while children reference it, and a
// child cannot be created under a parent that does not exist. Used for local
// development and as the fake in tests.
type MemoryStore struct {
	mu       sync.Mutex
	teams    map[string]domain.Team
	managers map[string]memoryNode // id -> node
	leads    map[string]memoryNode
	members  map[string]memoryNode

	// Ops records every mutating call in order, for test assertions.
	Ops []string

	// FailOn makes the named operations return an error, keyed by
	// "createMember:<userID>", "deleteManager:<id>" and similar.
	FailOn map[string]bool

	// ListErr, when set, makes ListTeams fail.
	ListErr error

	seq int
}

type memoryNode struct {
	id       string
	teamID   string
	parentID string
	userID   string
	seq      int
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams:    make(map[string]domain.Team),
		managers: make(map[string]memoryNode),
		leads:    make(map[string]memoryNode),
		members:  make(map[string]memoryNode),
		FailOn:   make(map[string]bool),
	}
}

func (s *MemoryStore) ListTeams(ctx context.Context, filter TeamFilter) ([]domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var out []domain.Team
	for _, team := range s.teams {
		if team.TenantID == filter.TenantID &&
			team.BranchID == filter.BranchID &&
			team.DepartmentID == filter.DepartmentID {
			out = append(out, team)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetTeam(ctx context.Context, id string) (*domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[id]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	return &team, nil
}

func (s *MemoryStore) GetHierarchy(ctx context.Context, teamID string) (*domain.HierarchyTree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[teamID]; !ok {
		return nil, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	tree := domain.NewHierarchyTree()
	for _, m := range sortedNodes(s.managers) {
		if m.teamID != teamID {
			continue
		}
		manager := domain.ManagerNode{ID: domain.PersistedID(m.id), UserID: m.userID}
		for _, l := range sortedNodes(s.leads) {
			if l.parentID != m.id {
				continue
			}
			lead := domain.TeamLeadNode{ID: domain.PersistedID(l.id), UserID: l.userID}
			for _, mem := range sortedNodes(s.members) {
				if mem.parentID != l.id {
					continue
				}
				lead.Members = append(lead.Members, domain.MemberNode{
					ID:     domain.PersistedID(mem.id),
					UserID: mem.userID,
				})
			}
			manager.TeamLeads = append(manager.TeamLeads, lead)
		}
		tree.Managers = append(tree.Managers, manager)
	}
	return tree, nil
}

// sortedNodes returns nodes in insertion order so fetched hierarchies are
// deterministic.
func sortedNodes(nodes map[string]memoryNode) []memoryNode {
	out := make([]memoryNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (s *MemoryStore) CreateTeam(ctx context.Context, team *domain.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCheck("createTeam", team.Name); err != nil {
		return err
	}
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	now := time.Now()
	team.CreatedAt = now
	team.UpdatedAt = now
	s.teams[team.ID] = *team
	s.record("createTeam:" + team.Name)
	return nil
}

func (s *MemoryStore) UpdateTeam(ctx context.Context, team *domain.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCheck("updateTeam", team.ID); err != nil {
		return err
	}
	if _, ok := s.teams[team.ID]; !ok {
		return fmt.Errorf("team %s: %w", team.ID, ErrNotFound)
	}
	team.UpdatedAt = time.Now()
	s.teams[team.ID] = *team
	s.record("updateTeam:" + team.ID)
	return nil
}

func (s *MemoryStore) DeleteTeam(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[id]; !ok {
		return fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	for _, m := range s.managers {
		if m.teamID == id {
			return fmt.Errorf("team %s still has managers: %w", id, ErrConflict)
		}
	}
	delete(s.teams, id)
	s.record("deleteTeam:" + id)
	return nil
}

func (s *MemoryStore) CreateManager(ctx context.Context, teamID, userID string) (domain.ManagerNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCheck("createManager", userID); err != nil {
		return domain.ManagerNode{}, err
	}
	if _, ok := s.teams[teamID]; !ok {
		return domain.ManagerNode{}, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	s.seq++
	node := memoryNode{id: uuid.NewString(), teamID: teamID, userID: userID, seq: s.seq}
	s.managers[node.id] = node
	s.record("createManager:" + userID)
	return domain.ManagerNode{ID: domain.PersistedID(node.id), UserID: userID}, nil
}

func (s *MemoryStore) DeleteManager(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCheck("deleteManager", id); err != nil {
		return err
	}
	node, ok := s.managers[id]
	if !ok {
		return fmt.Errorf("manager %s: %w", id, ErrNotFound)
	}
	for _, l := range s.leads {
		if l.parentID == id {
			return fmt.Errorf("manager %s still has team leads: %w", id, ErrConflict)
		}
	}
	delete(s.managers, id)
	s.record("deleteManager:" + node.userID)
	return nil
}

func (s *MemoryStore) CreateTeamLead(ctx context.Context, teamID, managerID, userID string) (domain.TeamLeadNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCheck("createTeamLead", userID); err != nil {
		return domain.TeamLeadNode{}, err
	}
	if _, ok := s.managers[managerID]; !ok {
		return domain.TeamLeadNode{}, fmt.Errorf("manager %s: %w", managerID, ErrNotFound)
	}
	s.seq++
	node := memoryNode{id: uuid.NewString(), teamID: teamID, parentID: managerID, userID: userID, seq: s.seq}
	s.leads[node.id] = node
	s.record("createTeamLead:" + userID)
	return domain.TeamLeadNode{ID: domain.PersistedID(node.id), UserID: userID}, nil
}

func (s *MemoryStore) DeleteTeamLead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCheck("deleteTeamLead", id); err != nil {
		return err
	}
	node, ok := s.leads[id]
	if !ok {
		return fmt.Errorf("team lead %s: %w", id, ErrNotFound)
	}
	for _, m := range s.members {
		if m.parentID == id {
			return fmt.Errorf("team lead %s still has members: %w", id, ErrConflict)
		}
	}
	delete(s.leads, id)
	s.record("deleteTeamLead:" + node.userID)
	return nil
}

func (s *MemoryStore) CreateMember(ctx context.Context, teamID, teamLeadID, userID string) (domain.MemberNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCheck("createMember", userID); err != nil {
		return domain.MemberNode{}, err
	}
	if _, ok := s.leads[teamLeadID]; !ok {
		return domain.MemberNode{}, fmt.Errorf("team lead %s: %w", teamLeadID, ErrNotFound)
	}
	s.seq++
	node := memoryNode{id: uuid.NewString(), teamID: teamID, parentID: teamLeadID, userID: userID, seq: s.seq}
	s.members[node.id] = node
	s.record("createMember:" + userID)
	return domain.MemberNode{ID: domain.PersistedID(node.id), UserID: userID}, nil
}

func (s *MemoryStore) DeleteMember(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCheck("deleteMember", id); err != nil {
		return err
	}
	node, ok := s.members[id]
	if !ok {
		return fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	delete(s.members, id)
	s.record("deleteMember:" + node.userID)
	return nil
}

func (s *MemoryStore) record(op string) {
	s.Ops = append(s.Ops, op)
}

func (s *MemoryStore) failCheck(op, key string) error {
	if s.FailOn[op+":"+key] {
		return fmt.Errorf("%s %s: injected failure", op, key)
	}
	return nil
}
