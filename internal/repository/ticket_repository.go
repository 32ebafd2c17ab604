package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexusops/sla-service/internal/domain"
)

// TimeWindow bounds a due timestamp to (From, To].
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// SLAFilter captures the ticket projections the deadline engine reads. A
// milestone is "overdue" when its due timestamp exists, is strictly before
// the reference time and the actual timestamp is still null; "due within" a
// window when the due timestamp is strictly after the window start and at or
// before its end with the actual timestamp still null. The two predicates
// are mutually exclusive for the same reference time.
type SLAFilter struct {
	OrganizationID       string
	Priority             *domain.TicketPriority
	Statuses             []domain.TicketStatus
	CreatedFrom          *time.Time
	CreatedTo            *time.Time
	HasResponseDue       bool
	ResponseMet          *bool
	ResolutionMet        *bool
	ResponseOverdueAt    *time.Time
	ResolutionOverdueAt  *time.Time
	ResponseDueWithin    *TimeWindow
	ResolutionDueWithin  *TimeWindow
	OrderByResponseDue   bool
	OrderByResolutionDue bool
	// Limit <= 0 means no LIMIT clause; trend aggregation needs the full
	// included set.
	Limit  int
	Offset int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter SLAFilter) ([]domain.Ticket, error)
	CountWithFilter(ctx context.Context, filter SLAFilter) (int, error)
	ListBreached(ctx context.Context, organizationID string, now time.Time) ([]domain.Ticket, error)
	ListAtRisk(ctx context.Context, organizationID string, now time.Time, window time.Duration) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, organization_id, external_key, title, description, status, priority,
               system_record_id, correlation_id, causation_id, trace_id,
               sla_response_due, sla_resolution_due, sla_response_at, resolved_at,
               sla_response_met, sla_resolution_met, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (organization_id, external_key, title, description, status, priority,
            system_record_id, correlation_id, causation_id, trace_id,
            sla_response_due, sla_resolution_due)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.OrganizationID,
		ticket.ExternalKey,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.SystemRecordID,
		ticket.CorrelationID,
		ticket.CausationID,
		ticket.TraceID,
		ticket.SLAResponseDue,
		ticket.SLAResolutionDue,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4,
            sla_response_at=$5, resolved_at=$6, sla_response_met=$7, sla_resolution_met=$8,
            updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.SLAResponseAt,
		ticket.ResolvedAt,
		ticket.SLAResponseMet,
		ticket.SLAResolutionMet,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter SLAFilter) ([]domain.Ticket, error) {
	clauses, args := buildTicketClauses(filter)

	orderBy := "created_at DESC"
	if filter.OrderByResponseDue {
		orderBy = "sla_response_due ASC NULLS LAST"
	} else if filter.OrderByResolutionDue {
		orderBy = "sla_resolution_due ASC NULLS LAST"
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s`,
		ticketColumns, strings.Join(clauses, " AND "), orderBy)
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountWithFilter(ctx context.Context, filter SLAFilter) (int, error) {
	clauses, args := buildTicketClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, strings.Join(clauses, " AND "))

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) ListBreached(ctx context.Context, organizationID string, now time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE organization_id=$1
          AND ((sla_response_due IS NOT NULL AND sla_response_due < $2 AND sla_response_at IS NULL)
            OR (sla_resolution_due IS NOT NULL AND sla_resolution_due < $2 AND resolved_at IS NULL))
        ORDER BY sla_response_due ASC NULLS LAST`
	rows, err := r.pool.Query(ctx, query, organizationID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListAtRisk(ctx context.Context, organizationID string, now time.Time, window time.Duration) ([]domain.Ticket, error) {
	end := now.Add(window)
	query := `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE organization_id=$1
          AND ((sla_response_due > $2 AND sla_response_due <= $3 AND sla_response_at IS NULL)
            OR (sla_resolution_due > $2 AND sla_resolution_due <= $3 AND resolved_at IS NULL))
        ORDER BY sla_response_due ASC NULLS LAST`
	rows, err := r.pool.Query(ctx, query, organizationID, now, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func buildTicketClauses(filter SLAFilter) ([]string, []any) {
	args := []any{filter.OrganizationID}
	clauses := []string{"organization_id=$1"}

	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.HasResponseDue {
		clauses = append(clauses, "sla_response_due IS NOT NULL")
	}
	if filter.ResponseMet != nil {
		args = append(args, *filter.ResponseMet)
		clauses = append(clauses, fmt.Sprintf("sla_response_met=$%d", len(args)))
	}
	if filter.ResolutionMet != nil {
		args = append(args, *filter.ResolutionMet)
		clauses = append(clauses, fmt.Sprintf("sla_resolution_met=$%d", len(args)))
	}
	if filter.ResponseOverdueAt != nil {
		args = append(args, *filter.ResponseOverdueAt)
		clauses = append(clauses, fmt.Sprintf(
			"(sla_response_due IS NOT NULL AND sla_response_due < $%d AND sla_response_at IS NULL)", len(args)))
	}
	if filter.ResolutionOverdueAt != nil {
		args = append(args, *filter.ResolutionOverdueAt)
		clauses = append(clauses, fmt.Sprintf(
			"(sla_resolution_due IS NOT NULL AND sla_resolution_due < $%d AND resolved_at IS NULL)", len(args)))
	}
	if filter.ResponseDueWithin != nil {
		args = append(args, filter.ResponseDueWithin.From)
		from := len(args)
		args = append(args, filter.ResponseDueWithin.To)
		clauses = append(clauses, fmt.Sprintf(
			"(sla_response_due > $%d AND sla_response_due <= $%d AND sla_response_at IS NULL)", from, len(args)))
	}
	if filter.ResolutionDueWithin != nil {
		args = append(args, filter.ResolutionDueWithin.From)
		from := len(args)
		args = append(args, filter.ResolutionDueWithin.To)
		clauses = append(clauses, fmt.Sprintf(
			"(sla_resolution_due > $%d AND sla_resolution_due <= $%d AND resolved_at IS NULL)", from, len(args)))
	}

	return clauses, args
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.OrganizationID,
		&ticket.ExternalKey,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.SystemRecordID,
		&ticket.CorrelationID,
		&ticket.CausationID,
		&ticket.TraceID,
		&ticket.SLAResponseDue,
		&ticket.SLAResolutionDue,
		&ticket.SLAResponseAt,
		&ticket.ResolvedAt,
		&ticket.SLAResponseMet,
		&ticket.SLAResolutionMet,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
