package callsync

import (
	"strings"
	"testing"
	"time"

	"callsync/internal/calls"
)

var syncedAt = time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

func TestTransform_NormalizesOptionalFields(t *testing.T) {
	row, clamped, err := Transform(calls.RawRecord{
		ID:        "c1",
		Type:      "vapi.websocketCall",
		CreatedAt: "2025-03-01T10:00:00.000Z",
		Analysis:  []byte("null"),
	}, syncedAt)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if clamped {
		t.Fatalf("did not expect clamping")
	}
	if !row.UpdatedAt.Equal(row.CreatedAt) {
		t.Fatalf("expected updatedAt to default to createdAt")
	}
	if row.Cost != 0 || row.Duration != 0 {
		t.Fatalf("expected zero cost and duration, got %v %v", row.Cost, row.Duration)
	}
	if row.Metadata != nil || row.Analysis != nil || row.CostBreakdown != nil {
		t.Fatalf("expected null blobs")
	}
	if row.Type != "vapi.websocketCall" {
		t.Fatalf("expected unknown type kept verbatim, got %q", row.Type)
	}
	if !row.SyncedAt.Equal(syncedAt) {
		t.Fatalf("expected syncedAt stamped")
	}
}

func TestTransform_DerivesDuration(t *testing.T) {
	row, clamped, err := Transform(calls.RawRecord{
		ID:        "c1",
		CreatedAt: "2025-03-01T10:00:00Z",
		StartedAt: "2025-03-01T10:00:00Z",
		EndedAt:   "2025-03-01T10:01:30Z",
	}, syncedAt)
	if err != nil || clamped {
		t.Fatalf("unexpected: %v %v", err, clamped)
	}
	if row.Duration != 90 {
		t.Fatalf("expected 90s, got %v", row.Duration)
	}

	row, clamped, err = Transform(calls.RawRecord{
		ID:        "c2",
		CreatedAt: "2025-03-01T10:00:00Z",
		StartedAt: "2025-03-01T10:01:30Z",
		EndedAt:   "2025-03-01T10:00:00Z",
	}, syncedAt)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if !clamped || row.Duration != 0 {
		t.Fatalf("expected clamped zero duration, got %v %v", row.Duration, clamped)
	}
}

func TestTransform_Rejects(t *testing.T) {
	neg := -1.0
	cases := map[string]calls.RawRecord{
		"id is required":        {CreatedAt: "2025-03-01T10:00:00Z"},
		"createdAt is required": {ID: "x"},
		"startedAt":             {ID: "x", CreatedAt: "2025-03-01T10:00:00Z", StartedAt: "yesterday"},
		"cost must not be":      {ID: "x", CreatedAt: "2025-03-01T10:00:00Z", Cost: &neg},
		"metadata must be":      {ID: "x", CreatedAt: "2025-03-01T10:00:00Z", Metadata: []byte(`[1,2]`)},
		"analysis":              {ID: "x", CreatedAt: "2025-03-01T10:00:00Z", Analysis: []byte(`{"summary":`)},
	}
	for want, raw := range cases {
		_, _, err := Transform(raw, syncedAt)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error containing %q, got %v", want, err)
		}
	}
}

func TestTransform_KeepsOpaqueObjects(t *testing.T) {
	row, _, err := Transform(calls.RawRecord{
		ID:            "c1",
		CreatedAt:     "2025-03-01T10:00:00Z",
		Customer:      &calls.Customer{Number: "+1555", Name: "Ada"},
		Metadata:      []byte(`{"a":1}`),
		Analysis:      []byte(`{"summary":"Appointment confirmed","successEvaluation":true}`),
		CostBreakdown: []byte(`{"llm":0.5}`),
	}, syncedAt)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	rec, err := calls.DecodeRow(row)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Metadata["a"] != float64(1) {
		t.Fatalf("metadata lost: %#v", rec.Metadata)
	}
	if rec.Analysis == nil || rec.Analysis.Summary != "Appointment confirmed" || rec.Analysis.SuccessEvaluation != true {
		t.Fatalf("analysis lost: %#v", rec.Analysis)
	}
	if rec.CostBreakdown["llm"] != 0.5 {
		t.Fatalf("costBreakdown lost: %#v", rec.CostBreakdown)
	}
	if rec.Customer == nil || rec.Customer.Name != "Ada" {
		t.Fatalf("customer lost: %#v", rec.Customer)
	}
}
