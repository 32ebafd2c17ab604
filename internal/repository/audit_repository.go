package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexusops/sla-service/internal/domain"
)

// AuditRepository persists immutable audit entries. Entries are only ever
// inserted and read, never updated.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	ListByRecord(ctx context.Context, organizationID, systemRecordID string, limit, offset int) ([]domain.AuditEntry, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository instantiates repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO audit_log (organization_id, action, actor_id, system_record_id,
            correlation_id, causation_id, trace_id, related_records, payload)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.OrganizationID,
		entry.Action,
		entry.ActorID,
		entry.SystemRecordID,
		entry.CorrelationID,
		entry.CausationID,
		entry.TraceID,
		entry.RelatedRecords,
		entry.Payload,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) ListByRecord(ctx context.Context, organizationID, systemRecordID string, limit, offset int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, organization_id, action, actor_id, system_record_id,
               correlation_id, causation_id, trace_id, related_records, payload, created_at
        FROM audit_log
        WHERE organization_id=$1 AND system_record_id=$2
        ORDER BY created_at DESC
        LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, organizationID, systemRecordID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.OrganizationID,
			&entry.Action,
			&entry.ActorID,
			&entry.SystemRecordID,
			&entry.CorrelationID,
			&entry.CausationID,
			&entry.TraceID,
			&entry.RelatedRecords,
			&entry.Payload,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
