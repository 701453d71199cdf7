package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spec-kit/team-hierarchy-service/internal/config"
	"github.com/spec-kit/team-hierarchy-service/internal/domain"
)

// HTTPClient is the minimal transport the adapter needs.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPStore talks to the remote team backend over REST with JSON bodies and a
// bearer token. Resource paths come from configuration; they are never
// guessed per call site.
type HTTPStore struct {
	baseURL string
	token   string
	client  HTTPClient

	teamsPath     string
	managersPath  string
	teamLeadsPath string
	membersPath   string
}

// NewHTTPStore builds the adapter. A nil client falls back to an http.Client
// with the configured timeout.
func NewHTTPStore(cfg config.RemoteStoreConfig, client HTTPClient) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout()}
	}
	return &HTTPStore{
		baseURL:       cfg.BaseURL,
		token:         cfg.BearerToken,
		client:        client,
		teamsPath:     cfg.TeamsPath,
		managersPath:  cfg.ManagersPath,
		teamLeadsPath: cfg.TeamLeadsPath,
		membersPath:   cfg.MembersPath,
	}
}

type teamPayload struct {
	ID               string    `json:"id,omitempty"`
	TenantID         string    `json:"tenant_id"`
	BranchID         string    `json:"branch_id"`
	DepartmentID     string    `json:"department_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	DepartmentHeadID *string   `json:"department_head_id,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

type nodePayload struct {
	ID         string        `json:"id,omitempty"`
	TeamID     string        `json:"team_id,omitempty"`
	ManagerID  string        `json:"manager_id,omitempty"`
	TeamLeadID string        `json:"team_lead_id,omitempty"`
	UserID     string        `json:"user_id"`
	TeamLeads  []nodePayload `json:"team_leads,omitempty"`
	Members    []nodePayload `json:"members,omitempty"`
}

func (s *HTTPStore) ListTeams(ctx context.Context, filter TeamFilter) ([]domain.Team, error) {
	query := url.Values{}
	query.Set("tenant_id", filter.TenantID)
	query.Set("branch_id", filter.BranchID)
	query.Set("department_id", filter.DepartmentID)

	var payload []teamPayload
	if err := s.do(ctx, http.MethodGet, s.teamsPath+"?"+query.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	teams := make([]domain.Team, 0, len(payload))
	for _, p := range payload {
		teams = append(teams, teamFromPayload(p))
	}
	return teams, nil
}

func (s *HTTPStore) GetTeam(ctx context.Context, id string) (*domain.Team, error) {
	var payload teamPayload
	if err := s.do(ctx, http.MethodGet, s.teamsPath+"/"+url.PathEscape(id), nil, &payload); err != nil {
		return nil, err
	}
	team := teamFromPayload(payload)
	return &team, nil
}

func (s *HTTPStore) GetHierarchy(ctx context.Context, teamID string) (*domain.HierarchyTree, error) {
	var payload []nodePayload
	path := s.teamsPath + "/" + url.PathEscape(teamID) + "/hierarchy"
	if err := s.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	tree := domain.NewHierarchyTree()
	for _, m := range payload {
		manager := domain.ManagerNode{ID: domain.PersistedID(m.ID), UserID: m.UserID}
		for _, l := range m.TeamLeads {
			lead := domain.TeamLeadNode{ID: domain.PersistedID(l.ID), UserID: l.UserID}
			for _, mem := range l.Members {
				lead.Members = append(lead.Members, domain.MemberNode{
					ID:     domain.PersistedID(mem.ID),
					UserID: mem.UserID,
				})
			}
			manager.TeamLeads = append(manager.TeamLeads, lead)
		}
		tree.Managers = append(tree.Managers, manager)
	}
	return tree, nil
}

func (s *HTTPStore) CreateTeam(ctx context.Context, team *domain.Team) error {
	var created teamPayload
	if err := s.do(ctx, http.MethodPost, s.teamsPath, teamToPayload(team), &created); err != nil {
		return err
	}
	*team = teamFromPayload(created)
	return nil
}

func (s *HTTPStore) UpdateTeam(ctx context.Context, team *domain.Team) error {
	var updated teamPayload
	path := s.teamsPath + "/" + url.PathEscape(team.ID)
	if err := s.do(ctx, http.MethodPut, path, teamToPayload(team), &updated); err != nil {
		return err
	}
	*team = teamFromPayload(updated)
	return nil
}

func (s *HTTPStore) DeleteTeam(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, s.teamsPath+"/"+url.PathEscape(id), nil, nil)
}

func (s *HTTPStore) CreateManager(ctx context.Context, teamID, userID string) (domain.ManagerNode, error) {
	var created nodePayload
	body := nodePayload{TeamID: teamID, UserID: userID}
	if err := s.do(ctx, http.MethodPost, s.managersPath, body, &created); err != nil {
		return domain.ManagerNode{}, err
	}
	return domain.ManagerNode{ID: domain.PersistedID(created.ID), UserID: created.UserID}, nil
}

func (s *HTTPStore) DeleteManager(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, s.managersPath+"/"+url.PathEscape(id), nil, nil)
}

func (s *HTTPStore) CreateTeamLead(ctx context.Context, teamID, managerID, userID string) (domain.TeamLeadNode, error) {
	var created nodePayload
	body := nodePayload{TeamID: teamID, ManagerID: managerID, UserID: userID}
	if err := s.do(ctx, http.MethodPost, s.teamLeadsPath, body, &created); err != nil {
		return domain.TeamLeadNode{}, err
	}
	return domain.TeamLeadNode{ID: domain.PersistedID(created.ID), UserID: created.UserID}, nil
}

func (s *HTTPStore) DeleteTeamLead(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, s.teamLeadsPath+"/"+url.PathEscape(id), nil, nil)
}

func (s *HTTPStore) CreateMember(ctx context.Context, teamID, teamLeadID, userID string) (domain.MemberNode, error) {
	var created nodePayload
	body := nodePayload{TeamID: teamID, TeamLeadID: teamLeadID, UserID: userID}
	if err := s.do(ctx, http.MethodPost, s.membersPath, body, &created); err != nil {
		return domain.MemberNode{}, err
	}
	return domain.MemberNode{ID: domain.PersistedID(created.ID), UserID: created.UserID}, nil
}

func (s *HTTPStore) DeleteMember(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, s.membersPath+"/"+url.PathEscape(id), nil, nil)
}

// do issues one request and decodes the {"data": ...} envelope into out.
func (s *HTTPStore) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%s %s: %w", method, path, ErrConflict)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func teamFromPayload(p teamPayload) domain.Team {
	return domain.Team{
		ID:               p.ID,
		TenantID:         p.TenantID,
		BranchID:         p.BranchID,
		DepartmentID:     p.DepartmentID,
		Name:             p.Name,
		Description:      p.Description,
		DepartmentHeadID: p.DepartmentHeadID,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func teamToPayload(team *domain.Team) teamPayload {
	return teamPayload{
		ID:               team.ID,
		TenantID:         team.TenantID,
		BranchID:         team.BranchID,
		DepartmentID:     team.DepartmentID,
		Name:             team.Name,
		Description:      team.Description,
		DepartmentHeadID: team.DepartmentHeadID,
	}
}
