package audit

import "time"

// Event is an immutable, append-only record of one sync attempt.
//
// Invariants:
// - Events are never updated or deleted (the sync_runs table enforces this with a trigger).
// - Type is required.
// - Audit is best-effort; a failed append never fails the sync it describes.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// Actor is the user id for API-triggered runs, or "scheduler"/"cli".
	Actor  string `json:"actor,omitempty" db:"actor"`
	Source string `json:"source,omitempty" db:"source"`

	Count    int `json:"count" db:"count"`
	Inserted int `json:"inserted" db:"inserted"`
	Updated  int `json:"updated" db:"updated"`
	Clamped  int `json:"clamped" db:"clamped"`

	// ErrorKind and RecordID are set on failed runs only.
	ErrorKind string `json:"error_kind,omitempty" db:"error_kind"`
	RecordID  string `json:"record_id,omitempty" db:"record_id"`

	// Message is the human-readable result, or the error details on failure.
	Message string `json:"message,omitempty" db:"message"`

	StartedAt time.Time `json:"started_at" db:"started_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeSyncSucceeded EventType = "sync_succeeded"
	EventTypeSyncFailed    EventType = "sync_failed"
)

func (t EventType) valid() bool {
	return t == EventTypeSyncSucceeded || t == EventTypeSyncFailed
}
