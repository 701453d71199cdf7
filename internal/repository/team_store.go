package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/team-hierarchy-service/internal/domain"
	"github.com/spec-kit/team-hierarchy-service/internal/store"
)

// PGTeamStore is the postgres-backed store.TeamStore, used when the service
// runs in embedded backend mode.
type PGTeamStore struct {
	pool *pgxpool.Pool
}

// NewPGTeamStore constructs the store.
func NewPGTeamStore(pool *pgxpool.Pool) *PGTeamStore {
	return &PGTeamStore{pool: pool}
}

var _ store.TeamStore = (*PGTeamStore)(nil)

func (r *PGTeamStore) ListTeams(ctx context.Context, filter store.TeamFilter) ([]domain.Team, error) {
	const query = `
        SELECT id, tenant_id, branch_id, department_id, name, description, department_head_id, created_at, updated_at
        FROM teams WHERE tenant_id=$1 AND branch_id=$2 AND department_id=$3`
	rows, err := r.pool.Query(ctx, query, filter.TenantID, filter.BranchID, filter.DepartmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(
			&team.ID,
			&team.TenantID,
			&team.BranchID,
			&team.DepartmentID,
			&team.Name,
			&team.Description,
			&team.DepartmentHeadID,
			&team.CreatedAt,
			&team.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, team)
	}
	return result, rows.Err()
}

func (r *PGTeamStore) GetTeam(ctx context.Context, id string) (*domain.Team, error) {
	const query = `
        SELECT id, tenant_id, branch_id, department_id, name, description, department_head_id, created_at, updated_at
        FROM teams WHERE id=$1`
	var team domain.Team
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&team.ID,
		&team.TenantID,
		&team.BranchID,
		&team.DepartmentID,
		&team.Name,
		&team.Description,
		&team.DepartmentHeadID,
		&team.CreatedAt,
		&team.UpdatedAt,
	); err != nil {
		return nil, mapPGError(err, "team", id)
	}
	return &team, nil
}

func (r *PGTeamStore) CreateTeam(ctx context.Context, team *domain.Team) error {
	const query = `
        INSERT INTO teams (tenant_id, branch_id, department_id, name, description, department_head_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		team.TenantID,
		team.BranchID,
		team.DepartmentID,
		team.Name,
		team.Description,
		team.DepartmentHeadID,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
	return mapPGError(err, "team", team.Name)
}

func (r *PGTeamStore) UpdateTeam(ctx context.Context, team *domain.Team) error {
	const query = `
        UPDATE teams SET name=$1, description=$2, department_head_id=$3, updated_at=NOW()
        WHERE id=$4 AND tenant_id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		team.Name,
		team.Description,
		team.DepartmentHeadID,
		team.ID,
		team.TenantID,
	)
	if err != nil {
		return mapPGError(err, "team", team.ID)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("team %s: %w", team.ID, store.ErrNotFound)
	}
	return nil
}

func (r *PGTeamStore) DeleteTeam(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id=$1`, id)
	if err != nil {
		return mapPGError(err, "team", id)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("team %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// mapPGError translates driver errors into store boundary errors.
func mapPGError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", resource, key, store.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23503 foreign key violation, 23505 unique violation
		if pgErr.Code == "23503" || pgErr.Code == "23505" {
			return fmt.Errorf("%s %s: %s: %w", resource, key, pgErr.Code, store.ErrConflict)
		}
	}
	return err
}
