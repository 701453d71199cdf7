package namecheck

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/team-hierarchy-service/internal/domain"
	"github.com/spec-kit/team-hierarchy-service/internal/persistence"
	"github.com/spec-kit/team-hierarchy-service/internal/store"
)

// Detector classifies a proposed team name against the teams already present
// in the same (tenant, branch, department) scope. It fails open: if the
// backing listing is unavailable, submission is not blocked.
type Detector struct {
	store   store.TeamStore
	matcher Matcher
	cache   *persistence.Redis
	ttl     time.Duration
	logger  *zap.Logger
}

// DetectorDependencies bundles detector collaborators. Cache is optional.
type DetectorDependencies struct {
	Store    store.TeamStore
	Matcher  Matcher
	Cache    *persistence.Redis
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// NewDetector constructs the detector.
func NewDetector(deps DetectorDependencies) *Detector {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		store:   deps.Store,
		matcher: deps.Matcher,
		cache:   deps.Cache,
		ttl:     deps.CacheTTL,
		logger:  logger,
	}
}

// CheckExists reports whether a team with the same normalized name already
// exists in scope. A true result is a blocking validation error.
func (d *Detector) CheckExists(ctx context.Context, name string, scope domain.TeamScope) bool {
	candidate := strings.ToLower(Normalize(name))
	if candidate == "" {
		return false
	}
	teams, err := d.listScope(ctx, scope)
	if err != nil {
		d.logger.Warn("name check listing failed; not blocking", zap.Error(err))
		return false
	}
	for i := range teams {
		if strings.ToLower(Normalize(teams[i].Name)) == candidate {
			return true
		}
	}
	return false
}

// FindSimilar returns every team in scope whose normalized name is similar to
// the candidate. A non-empty result is a non-blocking warning.
func (d *Detector) FindSimilar(ctx context.Context, name string, scope domain.TeamScope) []domain.Team {
	candidate := Normalize(name)
	if candidate == "" {
		return nil
	}
	teams, err := d.listScope(ctx, scope)
	if err != nil {
		d.logger.Warn("similar name listing failed; returning none", zap.Error(err))
		return nil
	}
	var similar []domain.Team
	for i := range teams {
		if strings.EqualFold(Normalize(teams[i].Name), candidate) {
			continue
		}
		if d.matcher.IsSimilar(teams[i].Name, candidate) {
			similar = append(similar, teams[i])
		}
	}
	return similar
}

// Invalidate drops the cached listing for a scope after a write.
func (d *Detector) Invalidate(ctx context.Context, scope domain.TeamScope) {
	if d.cache == nil || d.ttl <= 0 {
		return
	}
	if err := d.cache.Delete(ctx, scopeCacheKey(scope)); err != nil {
		d.logger.Warn("failed to invalidate name check cache", zap.Error(err))
	}
}

func (d *Detector) listScope(ctx context.Context, scope domain.TeamScope) ([]domain.Team, error) {
	key := scopeCacheKey(scope)
	if d.cache != nil && d.ttl > 0 {
		if raw, err := d.cache.GetString(ctx, key); err == nil && raw != "" {
			var cached []domain.Team
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	teams, err := d.store.ListTeams(ctx, store.TeamFilter{
		TenantID:     scope.TenantID,
		BranchID:     scope.BranchID,
		DepartmentID: scope.DepartmentID,
	})
	if err != nil {
		return nil, err
	}

	if d.cache != nil && d.ttl > 0 {
		if raw, err := json.Marshal(teams); err == nil {
			if err := d.cache.SetString(ctx, key, string(raw), d.ttl); err != nil {
				d.logger.Debug("failed to cache name check listing", zap.Error(err))
			}
		}
	}
	return teams, nil
}

func scopeCacheKey(scope domain.TeamScope) string {
	return fmt.Sprintf("namecheck:teams:%s:%s:%s", scope.TenantID, scope.BranchID, scope.DepartmentID)
}
