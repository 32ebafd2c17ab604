package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexusops/sla-service/internal/domain"
)

// SLATargetRepository encapsulates SLA target persistence.
type SLATargetRepository interface {
	// FindByOrganization returns all target rows for the organization
	// ordered by creation time ascending, so the first row seen per
	// priority is the authoritative one.
	FindByOrganization(ctx context.Context, organizationID string) ([]domain.SLATarget, error)
	// UpsertTargets applies the given targets in a single transaction:
	// the oldest existing row per (organization, priority) is updated in
	// place, otherwise a row is inserted. On any failure nothing is
	// persisted.
	UpsertTargets(ctx context.Context, organizationID string, targets []domain.SLATarget) error
}

type slaTargetRepository struct {
	pool *pgxpool.Pool
}

// NewSLATargetRepository instantiates repository.
func NewSLATargetRepository(pool *pgxpool.Pool) SLATargetRepository {
	return &slaTargetRepository{pool: pool}
}

func (r *slaTargetRepository) FindByOrganization(ctx context.Context, organizationID string) ([]domain.SLATarget, error) {
	const query = `
        SELECT id, organization_id, priority, name, description,
               response_time_mins, resolution_time_mins, business_hours_only, is_active,
               created_at, updated_at
        FROM sla_targets
        WHERE organization_id=$1
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLATarget
	for rows.Next() {
		var target domain.SLATarget
		if err := rows.Scan(
			&target.ID,
			&target.OrganizationID,
			&target.Priority,
			&target.Name,
			&target.Description,
			&target.ResponseTimeMins,
			&target.ResolutionTimeMins,
			&target.BusinessHoursOnly,
			&target.IsActive,
			&target.CreatedAt,
			&target.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, target)
	}
	return result, rows.Err()
}

func (r *slaTargetRepository) UpsertTargets(ctx context.Context, organizationID string, targets []domain.SLATarget) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, target := range targets {
		if err := upsertTarget(ctx, tx, organizationID, target); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func upsertTarget(ctx context.Context, tx pgx.Tx, organizationID string, target domain.SLATarget) error {
	const selectQuery = `
        SELECT id FROM sla_targets
        WHERE organization_id=$1 AND priority=$2
        ORDER BY created_at ASC
        LIMIT 1`

	var existingID string
	err := tx.QueryRow(ctx, selectQuery, organizationID, target.Priority).Scan(&existingID)
	switch {
	case err == nil:
		const updateQuery = `
            UPDATE sla_targets SET name=$1, description=$2, response_time_mins=$3,
                resolution_time_mins=$4, business_hours_only=$5, is_active=$6, updated_at=NOW()
            WHERE id=$7`
		_, err := tx.Exec(ctx, updateQuery,
			target.Name,
			target.Description,
			target.ResponseTimeMins,
			target.ResolutionTimeMins,
			target.BusinessHoursOnly,
			target.IsActive,
			existingID,
		)
		return err
	case errors.Is(err, pgx.ErrNoRows):
		const insertQuery = `
            INSERT INTO sla_targets (organization_id, priority, name, description,
                response_time_mins, resolution_time_mins, business_hours_only, is_active)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
		_, err := tx.Exec(ctx, insertQuery,
			organizationID,
			target.Priority,
			target.Name,
			target.Description,
			target.ResponseTimeMins,
			target.ResolutionTimeMins,
			target.BusinessHoursOnly,
			target.IsActive,
		)
		return err
	default:
		return err
	}
}
