package systemlinks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSystemRecordID(t *testing.T) {
	tests := []struct {
		name       string
		entityType string
		entityID   string
		expected   string
	}{
		{name: "basic", entityType: "ticket", entityID: "NXO-1A2B3C4D", expected: "ticket:NXO-1A2B3C4D"},
		{name: "type lower-cased", entityType: "Ticket", entityID: "abc", expected: "ticket:abc"},
		{name: "type trimmed", entityType: "  ticket  ", entityID: "abc", expected: "ticket:abc"},
		{name: "id trimmed not lowered", entityType: "ticket", entityID: "  ABC  ", expected: "ticket:ABC"},
		{name: "blank type defaults", entityType: "   ", entityID: "abc", expected: "entity:abc"},
		{name: "blank id defaults", entityType: "ticket", entityID: "", expected: "ticket:unknown"},
		{name: "both blank", entityType: "", entityID: "", expected: "entity:unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ToSystemRecordID(tc.entityType, tc.entityID))
		})
	}
}

func TestParseSystemRecordID(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		ref := ParseSystemRecordID("ticket:NXO-1A2B3C4D")
		require.NotNil(t, ref)
		assert.Equal(t, "ticket", ref.Type)
		assert.Equal(t, "NXO-1A2B3C4D", ref.ID)
	})

	t.Run("splits on first colon only", func(t *testing.T) {
		ref := ParseSystemRecordID("trace:span:0af7651916cd43dd")
		require.NotNil(t, ref)
		assert.Equal(t, "trace", ref.Type)
		assert.Equal(t, "span:0af7651916cd43dd", ref.ID)
	})

	t.Run("type normalized", func(t *testing.T) {
		ref := ParseSystemRecordID("Ticket:abc")
		require.NotNil(t, ref)
		assert.Equal(t, "ticket", ref.Type)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		invalid := []string{"", "no-colon", ":abc", "abc:", ":", "   :abc"}
		for _, input := range invalid {
			assert.Nil(t, ParseSystemRecordID(input), "input %q", input)
		}
	})

	t.Run("whitespace halves rejected", func(t *testing.T) {
		assert.Nil(t, ParseSystemRecordID("ticket:   "))
	})

	t.Run("round trip", func(t *testing.T) {
		id := ToSystemRecordID("incident", "INC-042")
		ref := ParseSystemRecordID(id)
		require.NotNil(t, ref)
		assert.Equal(t, "incident", ref.Type)
		assert.Equal(t, "INC-042", ref.ID)
	})
}

func TestToTraceContext(t *testing.T) {
	t.Run("no sources", func(t *testing.T) {
		trace := ToTraceContext("ticket:abc")
		assert.Equal(t, "ticket:abc", trace.SystemRecordID)
		assert.Empty(t, trace.CorrelationID)
		assert.Empty(t, trace.CausationID)
		assert.Empty(t, trace.TraceID)
	})

	t.Run("first non-blank source wins per field", func(t *testing.T) {
		body := map[string]string{"correlation_id": "", "trace_id": "trace-body"}
		headers := map[string]string{"correlation_id": "corr-hdr", "causation_id": "cause-hdr", "trace_id": "trace-hdr"}

		trace := ToTraceContext("ticket:abc", body, headers)
		assert.Equal(t, "corr-hdr", trace.CorrelationID)
		assert.Equal(t, "cause-hdr", trace.CausationID)
		assert.Equal(t, "trace-body", trace.TraceID)
	})

	t.Run("blank values skipped", func(t *testing.T) {
		trace := ToTraceContext("ticket:abc", map[string]string{"correlation_id": "   "}, map[string]string{"correlation_id": "corr-2"})
		assert.Equal(t, "corr-2", trace.CorrelationID)
	})

	t.Run("nil sources skipped", func(t *testing.T) {
		trace := ToTraceContext("ticket:abc", nil, map[string]string{"causation_id": "cause"})
		assert.Equal(t, "cause", trace.CausationID)
	})

	t.Run("value kept untrimmed", func(t *testing.T) {
		trace := ToTraceContext("ticket:abc", map[string]string{"correlation_id": " corr "})
		assert.Equal(t, " corr ", trace.CorrelationID)
	})
}

func TestBuildRelatedRecords(t *testing.T) {
	t.Run("stamps system record ids", func(t *testing.T) {
		out := BuildRelatedRecords([]RelatedRecord{
			{Type: "ticket", ID: "t1", Relationship: "self"},
			{Type: "organization", ID: "org-1", Relationship: "owner"},
		})
		require.Len(t, out, 2)
		assert.Equal(t, "ticket:t1", out[0].SystemRecordID)
		assert.Equal(t, "organization:org-1", out[1].SystemRecordID)
	})

	t.Run("blank ids dropped", func(t *testing.T) {
		out := BuildRelatedRecords([]RelatedRecord{
			{Type: "sla_target", ID: "   ", Relationship: "applies"},
			{Type: "ticket", ID: "t1"},
		})
		require.Len(t, out, 1)
		assert.Equal(t, "ticket:t1", out[0].SystemRecordID)
	})

	t.Run("dedupe on relationship plus record, first wins", func(t *testing.T) {
		out := BuildRelatedRecords([]RelatedRecord{
			{Type: "ticket", ID: "t1", Relationship: "blocks"},
			{Type: "Ticket", ID: "t1", Relationship: "blocks"},
			{Type: "ticket", ID: "t1", Relationship: "duplicates"},
		})
		require.Len(t, out, 2)
		assert.Equal(t, "blocks", out[0].Relationship)
		assert.Equal(t, "duplicates", out[1].Relationship)
	})

	t.Run("idempotent", func(t *testing.T) {
		in := []RelatedRecord{
			{Type: "ticket", ID: "t1", Relationship: "blocks"},
			{Type: "organization", ID: "org-1", Relationship: "owner"},
		}
		once := BuildRelatedRecords(in)
		twice := BuildRelatedRecords(once)
		assert.Equal(t, once, twice)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, BuildRelatedRecords(nil))
	})
}
