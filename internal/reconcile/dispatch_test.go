package reconcile

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestDispatcher(t *testing.T) {
	t.Run("executes_enqueued_jobs", func(t *testing.T) {
		d := NewDispatcher(2, 16, zap.NewNop().Sugar())

		var ran atomic.Int32
		for i := 0; i < 5; i++ {
			if !d.Enqueue("job", func(ctx context.Context) error {
				ran.Add(1)
				return nil
			}) {
				t.Fatal("expected enqueue to succeed")
			}
		}
		d.Close()

		if got := ran.Load(); got != 5 {
			t.Errorf("expected 5 jobs to run, got %d", got)
		}
	})

	t.Run("drops_jobs_when_queue_full", func(t *testing.T) {
		d := NewDispatcher(1, 1, zap.NewNop().Sugar())

		block := make(chan struct{})
		d.Enqueue("blocker", func(ctx context.Context) error {
			<-block
			return nil
		})
		d.Enqueue("queued", func(ctx context.Context) error { return nil })

		// Worker busy, queue holds one job: the next enqueue must be dropped
		// rather than block the caller.
		dropped := false
		for i := 0; i < 10; i++ {
			if !d.Enqueue("overflow", func(ctx context.Context) error { return nil }) {
				dropped = true
				break
			}
		}
		if !dropped {
			t.Error("expected an enqueue to be dropped with the queue full")
		}

		close(block)
		d.Close()
	})

	t.Run("job_errors_do_not_stop_workers", func(t *testing.T) {
		d := NewDispatcher(1, 16, zap.NewNop().Sugar())

		var ran atomic.Int32
		d.Enqueue("failing", func(ctx context.Context) error {
			return errors.New("boom")
		})
		d.Enqueue("after", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
		d.Close()

		if ran.Load() != 1 {
			t.Error("expected the job after a failure to still run")
		}
	})

	t.Run("job_panics_are_recovered", func(t *testing.T) {
		d := NewDispatcher(1, 16, zap.NewNop().Sugar())

		var ran atomic.Int32
		d.Enqueue("panicking", func(ctx context.Context) error {
			panic("boom")
		})
		d.Enqueue("after", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
		d.Close()

		if ran.Load() != 1 {
			t.Error("expected the job after a panic to still run")
		}
	})

	t.Run("enqueue_after_close_is_rejected", func(t *testing.T) {
		d := NewDispatcher(1, 16, zap.NewNop().Sugar())
		d.Close()

		if d.Enqueue("late", func(ctx context.Context) error { return nil }) {
			t.Error("expected enqueue after close to be rejected")
		}

		// Close is idempotent.
		d.Close()
	})
}
