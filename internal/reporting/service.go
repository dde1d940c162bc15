package reporting

import (
	"context"
	"errors"
	"strings"

	"callsync/internal/calls"
	"callsync/pkg/logger"
	"callsync/pkg/metrics"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Reader is the read side of calls.Store.
type Reader interface {
	Get(ctx context.Context, id string) (calls.Record, error)
	ListAll(ctx context.Context) ([]calls.Record, error)
	ListByStatus(ctx context.Context, status string) ([]calls.Record, error)
}

// Service serves the dashboard read models: stats, call log and call detail.
type Service struct {
	reader Reader
	cache  StatsCache
	rules  BookingRules
}

func NewService(reader Reader, cache StatsCache, rules BookingRules) *Service {
	if cache == nil {
		cache = NopStatsCache{}
	}
	if len(rules.Keywords) == 0 {
		rules.Keywords = DefaultBookingRules().Keywords
	}
	return &Service{reader: reader, cache: cache, rules: rules}
}

// DashboardStats returns stats over all stored calls, from cache when fresh.
// Cache failures degrade to recomputation.
func (s *Service) DashboardStats(ctx context.Context) (Stats, error) {
	if s.reader == nil {
		return Stats{}, errors.New("reporting: repository not configured")
	}
	log := logger.From(ctx)

	cached, gen, ok, err := s.cache.Get(ctx)
	cacheable := err == nil
	switch {
	case err != nil:
		metrics.StatsCacheLookups.WithLabelValues("error").Inc()
		log.Warn("stats cache read failed", logger.Err(err))
	case ok:
		metrics.StatsCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	default:
		metrics.StatsCacheLookups.WithLabelValues("miss").Inc()
	}

	records, err := s.reader.ListAll(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := ComputeStats(records, s.rules)
	// Set is a no-op when a sync invalidated the cache after gen was read.
	if cacheable {
		if err := s.cache.Set(ctx, gen, stats); err != nil {
			log.Warn("stats cache write failed", logger.Err(err))
		}
	}
	return stats, nil
}

// Invalidate drops cached stats. The sync engine calls it after each
// successful sync.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}

// CallLog lists calls newest first, optionally filtered by exact status.
func (s *Service) CallLog(ctx context.Context, status string) ([]calls.Record, error) {
	if s.reader == nil {
		return nil, errors.New("reporting: repository not configured")
	}
	status = strings.TrimSpace(status)
	if status == "" {
		return s.reader.ListAll(ctx)
	}
	return s.reader.ListByStatus(ctx, status)
}

// CallDetail returns one call. Unknown ids yield calls.ErrNotFound.
func (s *Service) CallDetail(ctx context.Context, id string) (calls.Record, error) {
	if strings.TrimSpace(id) == "" {
		return calls.Record{}, ErrInvalidRequest
	}
	if s.reader == nil {
		return calls.Record{}, errors.New("reporting: repository not configured")
	}
	return s.reader.Get(ctx, id)
}
