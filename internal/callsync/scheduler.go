package callsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"callsync/pkg/logger"
)

// Runner is the part of Engine the scheduler needs.
type Runner interface {
	Run(ctx context.Context, actor string) (Result, error)
}

const ActorScheduler = "scheduler"

// Scheduler triggers a sync every interval until its context is cancelled.
// A tick that finds another sync running is skipped, not queued.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	log      *slog.Logger

	wg sync.WaitGroup
}

func NewScheduler(runner Runner, interval time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{runner: runner, interval: interval, log: log.With("component", ActorScheduler)}
}

// Start launches the loop. It returns immediately; use Wait after cancelling
// ctx to let an in-flight sync finish.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
}

func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("sync scheduler started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sync scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one sync. Failures are already logged by Run.
func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.runner.Run(logger.With(ctx, s.log), ActorScheduler); errors.Is(err, ErrBusy) {
		s.log.Debug("sync skipped; another run holds the lock")
	}
}
