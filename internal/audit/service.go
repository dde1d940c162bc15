package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for sync run events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context, limit int) ([]Event, error)
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

// Service records the history of sync runs.
// Callers should treat audit logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var (
	ErrInvalidEvent  = errors.New("audit: invalid event")
	errNotConfigured = errors.New("audit: repository not configured")
)

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errNotConfigured
	}
	if !e.Type.valid() {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = e.CreatedAt
	}
	return s.repo.Append(ctx, e)
}

// List returns recent runs, newest first. limit <= 0 selects the default
// and values above MaxListLimit are capped.
func (s *Service) List(ctx context.Context, limit int) ([]Event, error) {
	if s.repo == nil {
		return nil, errNotConfigured
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.List(ctx, limit)
}
