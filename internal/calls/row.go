package calls

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Row is the storage form of a Record: customer flattened into columns and
// the opaque objects serialized to JSON blobs (nil blob means SQL NULL).
type Row struct {
	ID                 string
	OrgID              string
	PhoneNumberID      string
	Type               CallType
	Status             string
	EndedReason        string
	Transcript         string
	RecordingURL       string
	StereoRecordingURL string
	Summary            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	StartedAt          *time.Time
	EndedAt            *time.Time
	Cost               float64
	Duration           float64
	CustomerNumber     string
	CustomerName       string
	Metadata           []byte
	Analysis           []byte
	CostBreakdown      []byte
	SyncedAt           time.Time
}

// EncodeRow serializes the opaque fields of r.
func EncodeRow(r Record) (Row, error) {
	row := Row{
		ID:                 r.ID,
		OrgID:              r.OrgID,
		PhoneNumberID:      r.PhoneNumberID,
		Type:               r.Type,
		Status:             r.Status,
		EndedReason:        r.EndedReason,
		Transcript:         r.Transcript,
		RecordingURL:       r.RecordingURL,
		StereoRecordingURL: r.StereoRecordingURL,
		Summary:            r.Summary,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		StartedAt:          r.StartedAt,
		EndedAt:            r.EndedAt,
		Cost:               r.Cost,
		Duration:           r.Duration,
		SyncedAt:           r.SyncedAt,
	}
	if r.Customer != nil {
		row.CustomerNumber = r.Customer.Number
		row.CustomerName = r.Customer.Name
	}

	var err error
	if r.Metadata != nil {
		if row.Metadata, err = json.Marshal(r.Metadata); err != nil {
			return Row{}, fmt.Errorf("encode metadata: %w", err)
		}
	}
	if r.Analysis != nil {
		if row.Analysis, err = json.Marshal(r.Analysis); err != nil {
			return Row{}, fmt.Errorf("encode analysis: %w", err)
		}
	}
	if r.CostBreakdown != nil {
		if row.CostBreakdown, err = json.Marshal(r.CostBreakdown); err != nil {
			return Row{}, fmt.Errorf("encode costBreakdown: %w", err)
		}
	}
	return row, nil
}

// DecodeRow is the inverse of EncodeRow.
func DecodeRow(row Row) (Record, error) {
	r := Record{
		ID:                 row.ID,
		OrgID:              row.OrgID,
		PhoneNumberID:      row.PhoneNumberID,
		Type:               row.Type,
		Status:             row.Status,
		EndedReason:        row.EndedReason,
		Transcript:         row.Transcript,
		RecordingURL:       row.RecordingURL,
		StereoRecordingURL: row.StereoRecordingURL,
		Summary:            row.Summary,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
		StartedAt:          row.StartedAt,
		EndedAt:            row.EndedAt,
		Cost:               row.Cost,
		Duration:           row.Duration,
		SyncedAt:           row.SyncedAt,
	}
	if row.CustomerNumber != "" {
		r.Customer = &Customer{Number: row.CustomerNumber, Name: row.CustomerName}
	}
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &r.Metadata); err != nil {
			return Record{}, fmt.Errorf("call %s: decode metadata: %w", row.ID, err)
		}
	}
	if len(row.Analysis) > 0 {
		var a Analysis
		if err := json.Unmarshal(row.Analysis, &a); err != nil {
			return Record{}, fmt.Errorf("call %s: decode analysis: %w", row.ID, err)
		}
		r.Analysis = &a
	}
	if len(row.CostBreakdown) > 0 {
		if err := json.Unmarshal(row.CostBreakdown, &r.CostBreakdown); err != nil {
			return Record{}, fmt.Errorf("call %s: decode costBreakdown: %w", row.ID, err)
		}
	}
	return r, nil
}
