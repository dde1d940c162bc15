package calls

import "github.com/goccy/go-json"

// RawRecord is a call exactly as the remote source reports it.
//
// Timestamps stay strings and opaque objects stay undecoded so that malformed
// input surfaces as a transform error naming the record, rather than failing
// the whole response decode.
type RawRecord struct {
	ID                 string `json:"id"`
	OrgID              string `json:"orgId"`
	PhoneNumberID      string `json:"phoneNumberId"`
	Type               string `json:"type"`
	Status             string `json:"status"`
	EndedReason        string `json:"endedReason"`
	Transcript         string `json:"transcript"`
	RecordingURL       string `json:"recordingUrl"`
	StereoRecordingURL string `json:"stereoRecordingUrl"`
	Summary            string `json:"summary"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	StartedAt string `json:"startedAt"`
	EndedAt   string `json:"endedAt"`

	Cost *float64 `json:"cost"`

	Customer      *Customer       `json:"customer"`
	Metadata      json.RawMessage `json:"metadata"`
	Analysis      json.RawMessage `json:"analysis"`
	CostBreakdown json.RawMessage `json:"costBreakdown"`
}
