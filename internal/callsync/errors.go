package callsync

import (
	"errors"
	"fmt"
)

// Kind classifies a sync failure. The trigger boundary maps kinds to
// responses; none of them is retried automatically.
type Kind string

const (
	KindConfig    Kind = "config"
	KindTransport Kind = "transport"
	KindTransform Kind = "transform"
	KindStore     Kind = "store"
	KindBusy      Kind = "busy"
)

// ErrBusy means another sync holds the lock.
var ErrBusy = errors.New("a sync is already running")

type Error struct {
	Kind Kind
	// RecordID and Position (1-based, within the fetched batch) name the
	// offending record for transform failures. Position identifies records
	// that arrive without an id.
	RecordID string
	Position int
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.RecordID != "":
		return fmt.Sprintf("%s error on record %q: %v", e.Kind, e.RecordID, e.Err)
	case e.Position > 0:
		return fmt.Sprintf("%s error on record #%d: %v", e.Kind, e.Position, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or "" when err is not a sync error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// RecordIDOf returns the offending record id carried by err, if any.
func RecordIDOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.RecordID
	}
	return ""
}

// PositionOf returns the 1-based batch position of the offending record, or 0.
func PositionOf(err error) int {
	var se *Error
	if errors.As(err, &se) {
		return se.Position
	}
	return 0
}

func wrap(kind Kind, err error) *Error { return &Error{Kind: kind, Err: err} }
