package calls

import "time"

// Record is a voice-agent call mirrored from the remote source.
//
// Identity invariant: ID is the primary key and never changes. CreatedAt is
// fixed by the first sync that observes the ID; later syncs overwrite every
// other field (remote state is authoritative).
//
// Duration is derived from StartedAt/EndedAt at sync time and is never taken
// from the remote payload.
type Record struct {
	ID            string   `json:"id"`
	OrgID         string   `json:"orgId"`
	PhoneNumberID string   `json:"phoneNumberId,omitempty"`
	Type          CallType `json:"type"`
	Status        string   `json:"status"`

	EndedReason        string `json:"endedReason,omitempty"`
	Transcript         string `json:"transcript,omitempty"`
	RecordingURL       string `json:"recordingUrl,omitempty"`
	StereoRecordingURL string `json:"stereoRecordingUrl,omitempty"`
	Summary            string `json:"summary,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`

	// Cost is in the source's currency unit (USD for Vapi).
	Cost float64 `json:"cost"`
	// Duration is in seconds.
	Duration float64 `json:"duration"`

	Customer      *Customer      `json:"customer,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Analysis      *Analysis      `json:"analysis,omitempty"`
	CostBreakdown map[string]any `json:"costBreakdown,omitempty"`

	// SyncedAt is local bookkeeping: when the row was last written by a sync.
	SyncedAt time.Time `json:"syncedAt"`
}

type Customer struct {
	Number string `json:"number"`
	Name   string `json:"name,omitempty"`
}

// Analysis is the post-call analysis produced by the voice agent.
// StructuredData and SuccessEvaluation are kept opaque.
type Analysis struct {
	Summary           string `json:"summary,omitempty"`
	StructuredData    any    `json:"structuredData,omitempty"`
	SuccessEvaluation any    `json:"successEvaluation,omitempty"`
}

type CallType string

const (
	CallTypeInboundPhone  CallType = "inboundPhoneCall"
	CallTypeOutboundPhone CallType = "outboundPhoneCall"
	CallTypeWeb           CallType = "webCall"
)

// Known reports whether t is one of the call types the dashboard renders.
func (t CallType) Known() bool {
	switch t {
	case CallTypeInboundPhone, CallTypeOutboundPhone, CallTypeWeb:
		return true
	default:
		return false
	}
}

// EffectiveSummary is the summary used for display and booking detection:
// the top-level summary, falling back to the analysis summary.
func (r Record) EffectiveSummary() string {
	if r.Summary != "" {
		return r.Summary
	}
	if r.Analysis != nil {
		return r.Analysis.Summary
	}
	return ""
}
