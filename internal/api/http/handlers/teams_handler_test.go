package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/team-hierarchy-service/internal/api/http"
	"github.com/spec-kit/team-hierarchy-service/internal/api/http/handlers"
	"github.com/spec-kit/team-hierarchy-service/internal/auth"
	"github.com/spec-kit/team-hierarchy-service/internal/events"
	"github.com/spec-kit/team-hierarchy-service/internal/namecheck"
	"github.com/spec-kit/team-hierarchy-service/internal/observability"
	"github.com/spec-kit/team-hierarchy-service/internal/reconcile"
	"github.com/spec-kit/team-hierarchy-service/internal/service"
	"github.com/spec-kit/team-hierarchy-service/internal/store"
)

type testEnv struct {
	app    *fiber.App
	store  *store.MemoryStore
	tokens *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := store.NewMemoryStore()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	svc := service.NewTeamService(service.TeamDependencies{
		Store: mem,
		Detector: namecheck.NewDetector(namecheck.DetectorDependencies{
			Store:   mem,
			Matcher: namecheck.NewMatcher(namecheck.DefaultMaxDistance),
		}),
		Engine:     reconcile.NewEngine(reconcile.EngineDependencies{Store: mem}),
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     logger,
	})

	tokens := auth.NewTokenManager("test-secret", 5)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("teams-test", "test", nil, nil),
		Teams:          handlers.NewTeamsHandler(svc),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	return &testEnv{app: app, store: mem, tokens: tokens}
}

func (e *testEnv) request(t *testing.T, method, path string, body any, authenticated bool) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		token, _, err := e.tokens.GenerateToken("admin-1", "tenant-1", "branch-1", "dept-1")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func submitPayload(name string, confirm bool) map[string]any {
	return map[string]any{
		"name":            name,
		"confirm_similar": confirm,
		"hierarchy": map[string]any{
			"managers": []map[string]any{{
				"user_id": "mgr-1",
				"team_leads": []map[string]any{{
					"user_id": "lead-1",
					"members": []map[string]any{
						{"user_id": "member-1"},
						{"user_id": "member-2"},
					},
				}},
			}},
		},
	}
}

func TestTeamsAPI_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	resp := env.request(t, http.MethodGet, "/teams", nil, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "UNAUTHORIZED", errObj["code"])
}

func TestTeamsAPI_CreateAndList(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/teams", submitPayload("  sales   team  ", false), true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)["data"].(map[string]any)
	teamID := created["id"].(string)
	require.NotEmpty(t, teamID)

	resp = env.request(t, http.MethodGet, "/teams", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decodeBody(t, resp)["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Sales Team", items[0].(map[string]any)["name"])

	resp = env.request(t, http.MethodGet, "/teams/"+teamID, nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decodeBody(t, resp)["data"].(map[string]any)
	managers := detail["hierarchy"].(map[string]any)["managers"].([]any)
	require.Len(t, managers, 1)
	leads := managers[0].(map[string]any)["team_leads"].([]any)
	require.Len(t, leads, 1)
	assert.Len(t, leads[0].(map[string]any)["members"].([]any), 2)
}

func TestTeamsAPI_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/teams", map[string]any{"name": ""}, true)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errObj := decodeBody(t, resp)["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errObj["code"])
	assert.Contains(t, errObj["details"].(map[string]any), "name")
}

func TestTeamsAPI_DuplicateName(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/teams", submitPayload("Sales Team", false), true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeBody(t, resp)

	dup := map[string]any{"name": "sales  TEAM", "hierarchy": map[string]any{"managers": []map[string]any{{
		"user_id": "mgr-2",
		"team_leads": []map[string]any{{
			"user_id": "lead-2",
			"members": []map[string]any{{"user_id": "member-3"}},
		}},
	}}}}
	resp = env.request(t, http.MethodPost, "/teams", dup, true)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	errObj := decodeBody(t, resp)["error"].(map[string]any)
	assert.Equal(t, "DUPLICATE_NAME", errObj["code"])
}

func TestTeamsAPI_SimilarNameConfirmation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/teams", submitPayload("Sales Team", false), true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeBody(t, resp)

	similar := map[string]any{"name": "Sale Team", "hierarchy": map[string]any{"managers": []map[string]any{{
		"user_id": "mgr-2",
		"team_leads": []map[string]any{{
			"user_id": "lead-2",
			"members": []map[string]any{{"user_id": "member-3"}},
		}},
	}}}}
	resp = env.request(t, http.MethodPost, "/teams", similar, true)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	errObj := decodeBody(t, resp)["error"].(map[string]any)
	assert.Equal(t, "SIMILAR_NAMES", errObj["code"])
	assert.Contains(t, errObj["details"].(map[string]any)["similar"], "Sales Team")

	similar["confirm_similar"] = true
	resp = env.request(t, http.MethodPost, "/teams", similar, true)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeBody(t, resp)
}

func TestTeamsAPI_NameCheck(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/teams", submitPayload("Sales Team", false), true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeBody(t, resp)

	resp = env.request(t, http.MethodPost, "/teams/name-check", map[string]any{"name": " sales  team "}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, true, data["exists"])

	resp = env.request(t, http.MethodPost, "/teams/name-check", map[string]any{"name": "Sale Team"}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = decodeBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, false, data["exists"])
	assert.Contains(t, data["similar"], "Sales Team")
}

func TestTeamsAPI_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/teams", submitPayload("Sales Team", false), true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	teamID := decodeBody(t, resp)["data"].(map[string]any)["id"].(string)

	resp = env.request(t, http.MethodPut, "/teams/"+teamID, submitPayload("Revenue Team", false), true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp)

	resp = env.request(t, http.MethodGet, "/teams/"+teamID, nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decodeBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, "Revenue Team", detail["name"])

	resp = env.request(t, http.MethodDelete, "/teams/"+teamID, nil, true)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/teams/"+teamID, nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	decodeBody(t, resp)
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)
	resp := env.request(t, http.MethodGet, "/health/live", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "alive", body["status"])
}
