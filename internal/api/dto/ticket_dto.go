package dto

import (
	"time"

	"github.com/nexusops/sla-service/internal/domain"
)

// CreateTicketRequest payload. The correlation fields seed the trace
// context; transport headers are consulted when they are blank.
type CreateTicketRequest struct {
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Priority      domain.TicketPriority `json:"priority"`
	CorrelationID string                `json:"correlation_id"`
	CausationID   string                `json:"causation_id"`
	TraceID       string                `json:"trace_id"`
}

// TicketResponse response.
type TicketResponse struct {
	ID               string                `json:"id"`
	ExternalKey      string                `json:"external_key"`
	Title            string                `json:"title"`
	Description      string                `json:"description,omitempty"`
	Status           domain.TicketStatus   `json:"status"`
	Priority         domain.TicketPriority `json:"priority"`
	SystemRecordID   string                `json:"system_record_id"`
	CorrelationID    *string               `json:"correlation_id,omitempty"`
	CausationID      *string               `json:"causation_id,omitempty"`
	TraceID          *string               `json:"trace_id,omitempty"`
	SLAResponseDue   *time.Time            `json:"sla_response_due,omitempty"`
	SLAResolutionDue *time.Time            `json:"sla_resolution_due,omitempty"`
	SLAResponseAt    *time.Time            `json:"sla_response_at,omitempty"`
	ResolvedAt       *time.Time            `json:"resolved_at,omitempty"`
	SLAResponseMet   *bool                 `json:"sla_response_met,omitempty"`
	SLAResolutionMet *bool                 `json:"sla_resolution_met,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}
