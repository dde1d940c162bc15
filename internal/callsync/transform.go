package callsync

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"callsync/internal/calls"

	"github.com/goccy/go-json"
)

// Transform turns one remote record into its storage row.
//
// Absent optional fields become explicit zero values (empty string, nil
// pointer, nil blob); duration is always recomputed from startedAt/endedAt.
// clamped reports that endedAt preceded startedAt and the duration was
// forced to zero.
func Transform(raw calls.RawRecord, syncedAt time.Time) (row calls.Row, clamped bool, err error) {
	if raw.ID == "" {
		return calls.Row{}, false, errors.New("id is required")
	}

	createdAt, err := parseTime("createdAt", raw.CreatedAt)
	if err != nil {
		return calls.Row{}, false, err
	}
	if createdAt == nil {
		return calls.Row{}, false, errors.New("createdAt is required")
	}
	updatedAt, err := parseTime("updatedAt", raw.UpdatedAt)
	if err != nil {
		return calls.Row{}, false, err
	}
	if updatedAt == nil {
		updatedAt = createdAt
	}
	startedAt, err := parseTime("startedAt", raw.StartedAt)
	if err != nil {
		return calls.Row{}, false, err
	}
	endedAt, err := parseTime("endedAt", raw.EndedAt)
	if err != nil {
		return calls.Row{}, false, err
	}

	var cost float64
	if raw.Cost != nil {
		cost = *raw.Cost
	}
	if cost < 0 {
		return calls.Row{}, false, fmt.Errorf("cost must not be negative, got %v", cost)
	}

	rec := calls.Record{
		ID:                 raw.ID,
		OrgID:              raw.OrgID,
		PhoneNumberID:      raw.PhoneNumberID,
		Type:               calls.CallType(raw.Type),
		Status:             raw.Status,
		EndedReason:        raw.EndedReason,
		Transcript:         raw.Transcript,
		RecordingURL:       raw.RecordingURL,
		StereoRecordingURL: raw.StereoRecordingURL,
		Summary:            raw.Summary,
		CreatedAt:          *createdAt,
		UpdatedAt:          *updatedAt,
		StartedAt:          startedAt,
		EndedAt:            endedAt,
		Cost:               cost,
		SyncedAt:           syncedAt.UTC(),
	}
	rec.Duration, clamped = calls.ComputeDuration(startedAt, endedAt)

	if raw.Customer != nil && raw.Customer.Number != "" {
		c := *raw.Customer
		rec.Customer = &c
	}
	if err := decodeObject("metadata", raw.Metadata, &rec.Metadata); err != nil {
		return calls.Row{}, false, err
	}
	if err := decodeObject("costBreakdown", raw.CostBreakdown, &rec.CostBreakdown); err != nil {
		return calls.Row{}, false, err
	}
	var analysis *calls.Analysis
	if err := decodeObject("analysis", raw.Analysis, &analysis); err != nil {
		return calls.Row{}, false, err
	}
	rec.Analysis = analysis

	row, err = calls.EncodeRow(rec)
	if err != nil {
		return calls.Row{}, false, err
	}
	return row, clamped, nil
}

func parseTime(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil, fmt.Errorf("%s %q is not an RFC 3339 timestamp", field, v)
	}
	t = t.UTC()
	return &t, nil
}

// decodeObject decodes an opaque JSON object. Absent and null values leave
// dst untouched; any other non-object value is rejected.
func decodeObject(field string, raw []byte, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] != '{' {
		return fmt.Errorf("%s must be a JSON object", field)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}
