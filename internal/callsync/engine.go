// Package callsync mirrors the remote call list into the local store.
package callsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"callsync/internal/audit"
	"callsync/internal/calls"
	"callsync/internal/source"
	"callsync/pkg/logger"
	"callsync/pkg/metrics"

	"github.com/google/uuid"
)

// Result is the outcome of one successful sync.
type Result struct {
	RunID string `json:"run_id,omitempty"`
	// Count is the number of remote records received, duplicates included.
	Count    int    `json:"count"`
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Clamped  int    `json:"clamped"`
	Message  string `json:"message"`
}

// Auditor receives one event per sync attempt.
type Auditor interface {
	Append(ctx context.Context, e audit.Event) error
}

// Invalidator is notified after each successful sync so derived caches
// (dashboard stats) are recomputed on next read.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Options struct {
	Source source.Source
	Locker Locker
	// Auditor and Invalidator are optional.
	Auditor     Auditor
	Invalidator Invalidator
	// FetchTimeout bounds the remote fetch inside Run. Zero means 30s.
	FetchTimeout time.Duration
	// LockTTL is the lease of the Locker. When set, the store write must
	// finish within most of a freshly renewed lease.
	LockTTL time.Duration
	Now     func() time.Time
}

// Engine runs syncs one at a time.
//
// Within a process the mutex serializes Synchronize and Run; across
// processes Run additionally takes the Locker. Store writes go through one
// PutBatch so a sync is applied entirely or not at all.
type Engine struct {
	store        calls.Store
	source       source.Source
	locker       Locker
	auditor      Auditor
	invalidator  Invalidator
	fetchTimeout time.Duration
	lockTTL      time.Duration
	now          func() time.Time

	mu sync.Mutex
}

func NewEngine(store calls.Store, opts Options) *Engine {
	e := &Engine{
		store:        store,
		source:       opts.Source,
		locker:       opts.Locker,
		auditor:      opts.Auditor,
		invalidator:  opts.Invalidator,
		fetchTimeout: opts.FetchTimeout,
		lockTTL:      opts.LockTTL,
		now:          opts.Now,
	}
	if e.locker == nil {
		e.locker = NopLocker{}
	}
	if e.fetchTimeout <= 0 {
		e.fetchTimeout = 30 * time.Second
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Synchronize applies already-fetched remote records to the store.
//
// Every record is transformed before the store is touched; the first
// malformed record fails the whole sync with KindTransform. Duplicate ids
// within raws collapse to the last occurrence.
func (e *Engine) Synchronize(ctx context.Context, raws []calls.RawRecord) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.synchronize(ctx, raws)
}

func (e *Engine) synchronize(ctx context.Context, raws []calls.RawRecord) (Result, error) {
	log := logger.From(ctx)
	syncedAt := e.now().UTC()

	rows := make([]calls.Row, 0, len(raws))
	index := make(map[string]int, len(raws))
	clamped := 0
	for i, raw := range raws {
		row, wasClamped, err := Transform(raw, syncedAt)
		if err != nil {
			return Result{}, &Error{Kind: KindTransform, RecordID: raw.ID, Position: i + 1, Err: err}
		}
		if !row.Type.Known() {
			log.Warn("unknown call type stored verbatim", "call_id", raw.ID, "type", raw.Type)
		}
		if wasClamped {
			clamped++
			log.Warn("negative call duration clamped to zero",
				"call_id", raw.ID, "started_at", raw.StartedAt, "ended_at", raw.EndedAt)
		}
		if i, dup := index[row.ID]; dup {
			rows[i] = row
			continue
		}
		index[row.ID] = len(rows)
		rows = append(rows, row)
	}

	out, err := e.store.PutBatch(ctx, rows)
	if err != nil {
		return Result{}, wrap(KindStore, err)
	}

	return Result{
		Count:    len(raws),
		Inserted: out.Inserted,
		Updated:  out.Updated,
		Clamped:  clamped,
		Message:  fmt.Sprintf("Synced %d calls to database", len(raws)),
	}, nil
}

// Run performs a full sync: lock, fetch, synchronize, then record the run.
// actor identifies who triggered it (user id, "scheduler", "cli").
func (e *Engine) Run(ctx context.Context, actor string) (Result, error) {
	log := logger.From(ctx).With("actor", actor)
	ctx = logger.With(ctx, log)

	if e.source == nil {
		return Result{}, wrap(KindConfig, errors.New("no remote source configured"))
	}
	if !e.mu.TryLock() {
		metrics.RecordSync(metrics.OutcomeBusy, string(KindBusy), 0, 0, 0, 0)
		return Result{}, wrap(KindBusy, ErrBusy)
	}
	defer e.mu.Unlock()

	runID := uuid.NewString()
	acquired, err := e.locker.Acquire(ctx, runID)
	if err != nil {
		return Result{}, wrap(KindStore, fmt.Errorf("acquire sync lock: %w", err))
	}
	if !acquired {
		metrics.RecordSync(metrics.OutcomeBusy, string(KindBusy), 0, 0, 0, 0)
		return Result{}, wrap(KindBusy, ErrBusy)
	}
	defer func() {
		// Release on a fresh context: ctx may already be cancelled.
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := e.locker.Release(relCtx, runID); err != nil {
			log.Warn("sync lock release failed", logger.Err(err))
		}
	}()

	started := e.now()
	log.Info("sync started", "run_id", runID, "source", e.source.Name())

	res, err := e.fetchAndSynchronize(ctx, runID)
	elapsed := e.now().Sub(started)
	res.RunID = runID

	if err != nil {
		kind := KindOf(err)
		log.Error("sync failed", "run_id", runID, "kind", string(kind), "record_id", RecordIDOf(err), "record_position", PositionOf(err), logger.Err(err))
		metrics.RecordSync(metrics.OutcomeFailure, string(kind), elapsed, 0, 0, 0)
		e.record(ctx, audit.Event{
			ID:        runID,
			Type:      audit.EventTypeSyncFailed,
			Actor:     actor,
			Source:    e.source.Name(),
			ErrorKind: string(kind),
			RecordID:  RecordIDOf(err),
			Message:   err.Error(),
			StartedAt: started.UTC(),
		})
		return res, err
	}

	log.Info("sync completed",
		"run_id", runID,
		"count", res.Count,
		"inserted", res.Inserted,
		"updated", res.Updated,
		"clamped", res.Clamped,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	metrics.RecordSync(metrics.OutcomeSuccess, "", elapsed, res.Inserted, res.Updated, res.Clamped)
	e.record(ctx, audit.Event{
		ID:        runID,
		Type:      audit.EventTypeSyncSucceeded,
		Actor:     actor,
		Source:    e.source.Name(),
		Count:     res.Count,
		Inserted:  res.Inserted,
		Updated:   res.Updated,
		Clamped:   res.Clamped,
		Message:   res.Message,
		StartedAt: started.UTC(),
	})
	if e.invalidator != nil {
		if err := e.invalidator.Invalidate(ctx); err != nil {
			log.Warn("stats cache invalidation failed", logger.Err(err))
		}
	}
	return res, nil
}

func (e *Engine) fetchAndSynchronize(ctx context.Context, runID string) (Result, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	raws, err := e.source.FetchAll(fetchCtx)
	cancel()
	if err != nil {
		if source.KindOf(err) == source.KindCredential {
			return Result{}, wrap(KindConfig, err)
		}
		return Result{}, wrap(KindTransport, err)
	}

	// The fetch may have used most of the lease. Renew it for the write and
	// give up rather than write without exclusion.
	held, err := e.locker.Acquire(ctx, runID)
	if err != nil {
		return Result{}, wrap(KindStore, fmt.Errorf("renew sync lock: %w", err))
	}
	if !held {
		return Result{}, wrap(KindBusy, fmt.Errorf("sync lock lost during fetch: %w", ErrBusy))
	}
	if e.lockTTL > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.lockTTL*9/10)
		defer cancel()
	}
	return e.synchronize(ctx, raws)
}

// record appends the audit event; failures are logged and swallowed.
func (e *Engine) record(ctx context.Context, ev audit.Event) {
	if e.auditor == nil {
		return
	}
	if err := e.auditor.Append(ctx, ev); err != nil {
		logger.From(ctx).Warn("sync audit append failed", slog.String("run_id", ev.ID), logger.Err(err))
	}
}
