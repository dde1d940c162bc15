// Package source fetches call records from the remote voice-agent platform.
package source

import (
	"context"
	"errors"
	"fmt"

	"callsync/internal/calls"
)

// Source is the remote record source the sync engine mirrors.
// FetchAll returns the full current set of remote records; there is no cursor.
type Source interface {
	Name() string
	FetchAll(ctx context.Context) ([]calls.RawRecord, error)
}

type ErrorKind string

const (
	// KindCredential means the credential is missing or was rejected.
	KindCredential ErrorKind = "credential"
	// KindTransport covers network failures, non-success responses,
	// undecodable bodies and an open circuit breaker.
	KindTransport ErrorKind = "transport"
)

var (
	ErrMissingCredential = errors.New("remote API key is not configured")
	ErrInvalidCredential = errors.New("remote API key was rejected")
)

// Error is returned by every Source implementation in this package.
type Error struct {
	Kind ErrorKind
	// StatusCode is the remote HTTP status, zero when no response was received.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind of err, defaulting to KindTransport for
// errors that did not originate here.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransport
}
