// internal/task/worker.go
package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// worker is one background loop instance. Its stop flag is never shared
// with another instance.
type worker struct {
	id      uuid.UUID
	started time.Time

	stop   *atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}

	iterations atomic.Uint64
	failures   atomic.Uint64
}

func newWorker(cancel context.CancelFunc) *worker {
	return &worker{
		id:      uuid.New(),
		started: time.Now(),
		stop:    atomic.NewBool(false),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// abort raises the cooperative flag and cancels the context so a body
// blocked in I/O or in the sleep returns immediately.
func (w *worker) abort() {
	w.stop.Store(true)
	w.cancel()
}

func (w *worker) exited() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

func (c *Coordinator) run(ctx context.Context, w *worker) {
	logger := c.logger.With(zap.String("worker_id", w.id.String()))

	defer c.wg.Done()
	defer close(w.done)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Worker panicked",
				zap.Any("panic", r),
				zap.Stack("stacktrace"),
			)
		}
	}()

	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for !w.stop.Load() && ctx.Err() == nil {
		it := Iteration{
			WorkerID: w.id,
			Seq:      w.iterations.Load() + 1,
			Role:     c.Role(),
			Settings: c.source.Snapshot(),
		}

		if err := c.work(ctx, it); err != nil && ctx.Err() == nil {
			w.failures.Inc()
			logger.Warn("Worker iteration failed",
				zap.Uint64("seq", it.Seq),
				zap.Stringer("role", it.Role),
				zap.Error(err),
			)
		}
		w.iterations.Inc()

		timer.Reset(c.interval)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}

	logger.Debug("Worker exited", zap.Uint64("iterations", w.iterations.Load()))
}
