package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityCritical TicketPriority = "critical"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityLow      TicketPriority = "low"
)

// Priorities is the fixed evaluation order used by dashboard aggregation and
// target reads.
var Priorities = []TicketPriority{
	TicketPriorityCritical,
	TicketPriorityHigh,
	TicketPriorityMedium,
	TicketPriorityLow,
}

// IsValidPriority reports whether p is one of the four known priorities.
func IsValidPriority(p TicketPriority) bool {
	for _, candidate := range Priorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for incidents tracked against SLA deadlines. The
// due timestamps are stamped at creation from the matching SLA target; the
// actual timestamps and met flags are finalized when the milestone occurs.
type Ticket struct {
	ID               string
	OrganizationID   string
	ExternalKey      string
	Title            string
	Description      string
	Status           TicketStatus
	Priority         TicketPriority
	SystemRecordID   string
	CorrelationID    *string
	CausationID      *string
	TraceID          *string
	SLAResponseDue   *time.Time
	SLAResolutionDue *time.Time
	SLAResponseAt    *time.Time
	ResolvedAt       *time.Time
	SLAResponseMet   *bool
	SLAResolutionMet *bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
