// Package systemlinks provides the canonical cross-entity identifier scheme
// ("{type}:{id}") and trace-context derivation used to correlate records
// across services. Every function here is pure and total: correlation must
// never block the write path it decorates, so malformed input degrades to
// defaults or nil instead of an error.
package systemlinks

import "strings"

const (
	defaultEntityType = "entity"
	defaultEntityID   = "unknown"
)

// RecordRef is the decoded form of a system record id.
type RecordRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ToSystemRecordID builds the canonical "{type}:{id}" identifier. The type
// half is trimmed and lower-cased, the id half trimmed; blank halves fall
// back to "entity" / "unknown".
func ToSystemRecordID(entityType, entityID string) string {
	t := strings.ToLower(strings.TrimSpace(entityType))
	if t == "" {
		t = defaultEntityType
	}
	id := strings.TrimSpace(entityID)
	if id == "" {
		id = defaultEntityID
	}
	return t + ":" + id
}

// ParseSystemRecordID decodes a canonical identifier, splitting on the first
// colon only so id values may themselves contain colons. Returns nil for
// empty input, input without a colon, or input where either half is blank.
func ParseSystemRecordID(systemRecordID string) *RecordRef {
	if systemRecordID == "" {
		return nil
	}
	idx := strings.Index(systemRecordID, ":")
	if idx <= 0 || idx == len(systemRecordID)-1 {
		return nil
	}
	recordType := strings.ToLower(strings.TrimSpace(systemRecordID[:idx]))
	recordID := strings.TrimSpace(systemRecordID[idx+1:])
	if recordType == "" || recordID == "" {
		return nil
	}
	return &RecordRef{Type: recordType, ID: recordID}
}

// TraceContext carries the correlation identifiers stamped onto persisted
// records. Optional fields stay empty when no source provides them.
type TraceContext struct {
	SystemRecordID string `json:"system_record_id"`
	CorrelationID  string `json:"correlation_id,omitempty"`
	CausationID    string `json:"causation_id,omitempty"`
	TraceID        string `json:"trace_id,omitempty"`
}

// ToTraceContext derives a trace context by scanning the ordered sources for
// the first non-blank value of each field. The original, untrimmed value is
// kept. Nil sources are skipped; inputs are never mutated.
func ToTraceContext(systemRecordID string, sources ...map[string]string) TraceContext {
	return TraceContext{
		SystemRecordID: systemRecordID,
		CorrelationID:  firstNonBlank("correlation_id", sources),
		CausationID:    firstNonBlank("causation_id", sources),
		TraceID:        firstNonBlank("trace_id", sources),
	}
}

func firstNonBlank(field string, sources []map[string]string) string {
	for _, source := range sources {
		if source == nil {
			continue
		}
		if value, ok := source[field]; ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// RelatedRecord links an entity to another record it touches. SystemRecordID
// is derived, never supplied.
type RelatedRecord struct {
	Type           string `json:"type"`
	ID             string `json:"id"`
	SystemRecordID string `json:"system_record_id"`
	Relationship   string `json:"relationship,omitempty"`
}

// BuildRelatedRecords drops records with a blank id, stamps each survivor
// with its system record id and deduplicates on (relationship, system record
// id), keeping the first occurrence in input order.
func BuildRelatedRecords(records []RelatedRecord) []RelatedRecord {
	out := make([]RelatedRecord, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		if strings.TrimSpace(record.ID) == "" {
			continue
		}
		record.SystemRecordID = ToSystemRecordID(record.Type, record.ID)
		key := record.Relationship + "|" + record.SystemRecordID
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, record)
	}
	return out
}
