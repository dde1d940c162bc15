package reporting

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"callsync/internal/calls"
)

func TestComputeStats_Example(t *testing.T) {
	records := []calls.Record{
		{ID: "a", Duration: 60, Cost: 1.5, Summary: "Job booked for Tuesday"},
		{ID: "b", Duration: 90, Cost: 2.0, Summary: "no interest"},
		{ID: "c", Duration: 0, Cost: 0, Analysis: &calls.Analysis{Summary: "Appointment confirmed"}},
	}
	got := ComputeStats(records, DefaultBookingRules())

	if got.TotalCalls != 3 {
		t.Fatalf("totalCalls: got %d", got.TotalCalls)
	}
	if got.TotalMinutes != 2.5 {
		t.Fatalf("totalMinutes: got %v", got.TotalMinutes)
	}
	if got.TotalCost != 3.5 {
		t.Fatalf("totalCost: got %v", got.TotalCost)
	}
	if got.BookedJobs != 2 {
		t.Fatalf("bookedJobs: got %d", got.BookedJobs)
	}
	if got.TotalRevenue != 10000 {
		t.Fatalf("totalRevenue: got %v", got.TotalRevenue)
	}
	if got.BookingRate != 66.7 {
		t.Fatalf("bookingRate: got %v", got.BookingRate)
	}
}

func TestComputeStats_EmptyInput(t *testing.T) {
	if got := ComputeStats(nil, DefaultBookingRules()); got != (Stats{}) {
		t.Fatalf("expected zero stats, got %+v", got)
	}
}

func TestComputeStats_IsDeterministic(t *testing.T) {
	records := []calls.Record{{Duration: 61, Cost: 0.1, Summary: "SCHEDULED a visit"}, {Duration: 7}}
	first := ComputeStats(records, DefaultBookingRules())
	if second := ComputeStats(records, DefaultBookingRules()); first != second {
		t.Fatalf("expected identical output, got %+v and %+v", first, second)
	}
	if first.TotalMinutes != 1.1 || first.BookedJobs != 1 {
		t.Fatalf("unexpected stats: %+v", first)
	}
}

func TestComputeStats_ConfigurableRules(t *testing.T) {
	records := []calls.Record{{Summary: "Quote sent"}, {Summary: "booked"}}
	got := ComputeStats(records, BookingRules{Keywords: []string{"quote"}, AverageOrderValue: 120})
	if got.BookedJobs != 1 || got.TotalRevenue != 120 {
		t.Fatalf("expected custom keyword and order value applied, got %+v", got)
	}
}

// memCache mirrors RedisStatsCache: Set only lands while the generation
// read by Get is still current.
type memCache struct {
	mu     sync.Mutex
	stats  *Stats
	gen    int64
	sets   int
	getErr error
}

func (c *memCache) Get(context.Context) (Stats, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return Stats{}, 0, false, c.getErr
	}
	if c.stats == nil {
		return Stats{}, c.gen, false, nil
	}
	return *c.stats, c.gen, true, nil
}

func (c *memCache) Set(_ context.Context, gen int64, s Stats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.stats = &s
	c.sets++
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.stats = nil
	return nil
}

// gatedReader takes its ListAll snapshot and then parks until released.
type gatedReader struct {
	*calls.MemoryStore
	gate    atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (r *gatedReader) ListAll(ctx context.Context) ([]calls.Record, error) {
	out, err := r.MemoryStore.ListAll(ctx)
	if r.gate.CompareAndSwap(true, false) {
		close(r.entered)
		<-r.release
	}
	return out, err
}

func seededStore(t *testing.T) *calls.MemoryStore {
	t.Helper()
	s := calls.NewMemoryStore()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, st := range []string{"ended", "queued", "ended"} {
		r, err := calls.EncodeRow(calls.Record{
			ID:        string(rune('a' + i)),
			Status:    st,
			Duration:  60,
			Summary:   "booked",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if _, err := s.Put(context.Background(), r); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	return s
}

func TestService_DashboardStatsUsesCacheUntilInvalidated(t *testing.T) {
	store := seededStore(t)
	cache := &memCache{}
	svc := NewService(store, cache, DefaultBookingRules())
	ctx := context.Background()

	first, err := svc.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if first.TotalCalls != 3 || cache.sets != 1 {
		t.Fatalf("expected computed stats cached, got %+v sets=%d", first, cache.sets)
	}

	// A write the cache does not know about stays invisible until Invalidate.
	r, _ := calls.EncodeRow(calls.Record{ID: "z", CreatedAt: time.Now()})
	if _, err := store.Put(ctx, r); err != nil {
		t.Fatalf("put: %v", err)
	}
	cached, _ := svc.DashboardStats(ctx)
	if cached.TotalCalls != 3 {
		t.Fatalf("expected cached stats, got %+v", cached)
	}

	if err := svc.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	fresh, _ := svc.DashboardStats(ctx)
	if fresh.TotalCalls != 4 {
		t.Fatalf("expected recomputed stats, got %+v", fresh)
	}
}

func TestService_DashboardStatsDoesNotCacheAcrossInvalidation(t *testing.T) {
	store := seededStore(t)
	reader := &gatedReader{MemoryStore: store, entered: make(chan struct{}), release: make(chan struct{})}
	reader.gate.Store(true)
	cache := &memCache{}
	svc := NewService(reader, cache, DefaultBookingRules())
	ctx := context.Background()

	done := make(chan Stats, 1)
	go func() {
		s, err := svc.DashboardStats(ctx)
		if err != nil {
			t.Errorf("stats: %v", err)
		}
		done <- s
	}()

	<-reader.entered
	r, _ := calls.EncodeRow(calls.Record{ID: "z", CreatedAt: time.Now()})
	if _, err := store.Put(ctx, r); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := svc.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	close(reader.release)

	if inflight := <-done; inflight.TotalCalls != 3 {
		t.Fatalf("expected in-flight read to see its own snapshot, got %+v", inflight)
	}
	if cache.sets != 0 {
		t.Fatalf("expected stale stats to be discarded, got %d cache writes", cache.sets)
	}

	fresh, err := svc.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if fresh.TotalCalls != 4 {
		t.Fatalf("expected stats recomputed after invalidation, got %+v", fresh)
	}
}

func TestService_DashboardStatsSurvivesCacheFailure(t *testing.T) {
	svc := NewService(seededStore(t), &memCache{getErr: errors.New("redis down")}, DefaultBookingRules())
	got, err := svc.DashboardStats(context.Background())
	if err != nil || got.TotalCalls != 3 {
		t.Fatalf("expected recomputed stats despite cache error, got %+v %v", got, err)
	}
}

func TestService_CallLogAndDetail(t *testing.T) {
	svc := NewService(seededStore(t), nil, DefaultBookingRules())
	ctx := context.Background()

	all, err := svc.CallLog(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 calls, got %d %v", len(all), err)
	}
	if all[0].ID != "c" {
		t.Fatalf("expected newest first, got %s", all[0].ID)
	}

	ended, _ := svc.CallLog(ctx, " ended ")
	if len(ended) != 2 {
		t.Fatalf("expected 2 ended calls, got %d", len(ended))
	}

	if _, err := svc.CallDetail(ctx, ""); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := svc.CallDetail(ctx, "missing"); !errors.Is(err, calls.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, err := svc.CallDetail(ctx, "b")
	if err != nil || got.Status != "queued" {
		t.Fatalf("unexpected detail: %+v %v", got, err)
	}
}
