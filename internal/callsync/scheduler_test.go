package callsync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingRunner struct{ n atomic.Int32 }

func (r *countingRunner) Run(ctx context.Context, actor string) (Result, error) {
	r.n.Add(1)
	if actor != ActorScheduler {
		panic("unexpected actor " + actor)
	}
	return Result{}, nil
}

func TestScheduler_RunsUntilCancelled(t *testing.T) {
	r := &countingRunner{}
	s := NewScheduler(r, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for r.n.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("scheduler did not tick")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	s.Wait()

	after := r.n.Load()
	time.Sleep(20 * time.Millisecond)
	if r.n.Load() != after {
		t.Fatalf("scheduler kept running after cancel")
	}
}

func TestScheduler_DisabledWithZeroInterval(t *testing.T) {
	r := &countingRunner{}
	s := NewScheduler(r, 0, nil)
	s.Start(context.Background())
	s.Wait()
	if r.n.Load() != 0 {
		t.Fatalf("expected no runs")
	}
}
