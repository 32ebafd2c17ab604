package domain

import (
	"time"

	"github.com/nexusops/sla-service/internal/systemlinks"
)

// AuditEntry is an immutable record of a state change, stamped with the
// canonical system record id and trace context of the entity it describes.
type AuditEntry struct {
	ID             string
	OrganizationID string
	Action         string
	ActorID        *string
	SystemRecordID string
	CorrelationID  *string
	CausationID    *string
	TraceID        *string
	RelatedRecords []systemlinks.RelatedRecord
	Payload        map[string]any
	CreatedAt      time.Time
}
