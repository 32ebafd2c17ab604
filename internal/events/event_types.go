package events

import (
	"time"

	"github.com/nexusops/sla-service/internal/domain"
	"github.com/nexusops/sla-service/internal/systemlinks"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = "ticket_created"
	EventTicketResponded   EventType = "ticket_responded"
	EventTicketResolved    EventType = "ticket_resolved"
	EventSLATargetsUpdated EventType = "sla_targets_updated"
)

// Event represents a domain event emitted by services. Every event carries
// the canonical system record id and trace context of the entity it
// concerns so downstream consumers can correlate without re-deriving.
type Event struct {
	ID             string                      `json:"id"`
	Type           EventType                   `json:"type"`
	OrganizationID string                      `json:"organization_id"`
	SystemRecordID string                      `json:"system_record_id"`
	Trace          systemlinks.TraceContext    `json:"trace"`
	Related        []systemlinks.RelatedRecord `json:"related,omitempty"`
	ActorID        *string                     `json:"actor_id,omitempty"`
	Timestamp      time.Time                   `json:"timestamp"`
	Payload        interface{}                 `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID         string                `json:"ticket_id"`
	ExternalKey      string                `json:"external_key"`
	Priority         domain.TicketPriority `json:"priority"`
	SLAResponseDue   *time.Time            `json:"sla_response_due,omitempty"`
	SLAResolutionDue *time.Time            `json:"sla_resolution_due,omitempty"`
}

// TicketMilestonePayload payload for responded/resolved events.
type TicketMilestonePayload struct {
	TicketID   string    `json:"ticket_id"`
	Milestone  string    `json:"milestone"`
	OccurredAt time.Time `json:"occurred_at"`
	Met        *bool     `json:"met,omitempty"`
}

// SLATargetsUpdatedPayload payload.
type SLATargetsUpdatedPayload struct {
	Priorities []domain.TicketPriority `json:"priorities"`
}
