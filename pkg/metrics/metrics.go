// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync outcomes used as the "outcome" label.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeBusy    = "busy"
)

var (
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callsync_sync_runs_total",
			Help: "Total number of sync runs by outcome and error kind",
		},
		[]string{"outcome", "kind"},
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "callsync_sync_duration_seconds",
			Help:    "Wall time of a sync run, fetch included",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecordsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callsync_records_written_total",
			Help: "Call records written by sync, split by insert or update",
		},
		[]string{"op"},
	)

	ClampedDurations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callsync_clamped_durations_total",
			Help: "Call records whose ended_at preceded started_at",
		},
	)

	LastSyncTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "callsync_last_success_timestamp_seconds",
			Help: "Unix time of the last successful sync",
		},
	)

	SourceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callsync_source_requests_total",
			Help: "Requests made to the remote call source by status class",
		},
		[]string{"source", "status"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open (gobreaker.State order).
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "callsync_source_breaker_state",
			Help: "Circuit breaker state of the remote call source",
		},
		[]string{"source"},
	)

	StatsCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callsync_stats_cache_lookups_total",
			Help: "Dashboard stats cache lookups by result",
		},
		[]string{"result"},
	)
)

// RecordSync records the outcome of one sync run.
// kind is empty for successful runs.
func RecordSync(outcome, kind string, elapsed time.Duration, inserted, updated, clamped int) {
	SyncRuns.WithLabelValues(outcome, kind).Inc()
	SyncDuration.Observe(elapsed.Seconds())
	if outcome != OutcomeSuccess {
		return
	}
	RecordsWritten.WithLabelValues("insert").Add(float64(inserted))
	RecordsWritten.WithLabelValues("update").Add(float64(updated))
	ClampedDurations.Add(float64(clamped))
	LastSyncTimestamp.SetToCurrentTime()
}
