package reconcile

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs the reconciliation sweep at a fixed interval. Ticks are
// mutually exclusive with themselves: when a sweep is still running as the
// next tick fires, the new tick is skipped rather than run concurrently.
// The hook may still run alongside a sweep; the deduplicator is the safety
// net for that pairing.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	clock    func() time.Time
	log      *zap.SugaredLogger

	runMu    sync.Mutex
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a scheduler for the given engine and interval.
func NewScheduler(engine *Engine, interval time.Duration, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		engine:   engine,
		interval: interval,
		clock:    time.Now,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the periodic loop. Stop must be called to shut it down.
func (s *Scheduler) Start() {
	s.log.Infow("reconciliation scheduler started", "interval", s.interval.String())
	go s.loop()
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Tick(context.Background())
		}
	}
}

// Tick executes a single sweep, unless the previous one is still running,
// in which case it is skipped. Returns whether a sweep ran.
func (s *Scheduler) Tick(ctx context.Context) bool {
	if !s.runMu.TryLock() {
		s.log.Warnw("previous reconciliation sweep still running, skipping tick")
		return false
	}
	defer s.runMu.Unlock()

	now := s.clock()
	result := s.engine.Run(ctx, now)
	s.log.Infow("reconciliation sweep completed",
		"series_evaluated", result.SeriesEvaluated,
		"budgets_evaluated", result.BudgetsEvaluated,
		"notifications_created", result.NotificationsCreated,
		"notifications_pruned", result.NotificationsPruned,
		"errors", result.Errors,
		"duration", result.Duration.String(),
	)
	return true
}

// Stop terminates the loop and waits for it to exit. A sweep in progress
// finishes first.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	s.log.Infow("reconciliation scheduler stopped")
}
