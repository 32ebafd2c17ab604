package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/nexusops/sla-service/internal/domain"
	"github.com/nexusops/sla-service/internal/events"
	"github.com/nexusops/sla-service/internal/repository"
)

// AuditService turns domain events into immutable audit log entries. It is
// the downstream consumer of the system-record correlation fields: entries
// keep the event's system record id, trace context and deduplicated related
// records so any record's history can be traced across entities.
type AuditService struct {
	dispatcher events.Dispatcher
	audits     repository.AuditRepository
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, audits repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		audits:     audits,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to all audited event types.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketCreated, a.handleEvent)
	a.dispatcher.Subscribe(events.EventTicketResponded, a.handleEvent)
	a.dispatcher.Subscribe(events.EventTicketResolved, a.handleEvent)
	a.dispatcher.Subscribe(events.EventSLATargetsUpdated, a.handleEvent)
}

// ListByRecord returns the audit trail for one system record id.
func (a *AuditService) ListByRecord(ctx context.Context, organizationID, systemRecordID string, limit, offset int) ([]domain.AuditEntry, error) {
	return a.audits.ListByRecord(ctx, organizationID, systemRecordID, limit, offset)
}

func (a *AuditService) handleEvent(ctx context.Context, event events.Event) error {
	entry := &domain.AuditEntry{
		OrganizationID: event.OrganizationID,
		Action:         string(event.Type),
		ActorID:        event.ActorID,
		SystemRecordID: event.SystemRecordID,
		CorrelationID:  optionalString(event.Trace.CorrelationID),
		CausationID:    optionalString(event.Trace.CausationID),
		TraceID:        optionalString(event.Trace.TraceID),
		RelatedRecords: event.Related,
		Payload:        payloadMap(event.Payload),
	}

	if err := a.audits.Create(ctx, entry); err != nil {
		// Audit persistence must never fail the primary write path.
		a.logger.Error("audit entry write failed",
			zap.String("action", entry.Action),
			zap.String("system_record_id", entry.SystemRecordID),
			zap.Error(err))
		return err
	}
	return nil
}

func payloadMap(payload any) map[string]any {
	if payload == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
