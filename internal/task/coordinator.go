// internal/task/coordinator.go
package task

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"link-service/internal/link"
)

// SettingsSource hands out a consistent copy of the link parameters.
// *link.Config satisfies it.
type SettingsSource interface {
	Snapshot() link.Settings
}

// Coordinator owns at most one background worker and the role it runs in.
// Every method is non-blocking apart from Shutdown.
type Coordinator struct {
	source   SettingsSource
	work     WorkFunc
	interval time.Duration
	logger   *zap.Logger
	observer Observer

	role atomic.Int32

	mu      sync.Mutex
	current *worker
	closed  bool

	// wg tracks every worker goroutine, including aborted ones still unwinding
	wg sync.WaitGroup
}

// Status is a point-in-time view of the coordinator.
type Status struct {
	Role       Role      `json:"role"`
	HasWorker  bool      `json:"has_worker"`
	WorkerID   string    `json:"worker_id,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	Iterations uint64    `json:"iterations"`
	Failures   uint64    `json:"failures"`
	// Exited is set when the tracked worker has stopped on its own, e.g. after a panic
	Exited bool `json:"exited"`
}

// NewCoordinator builds an idle coordinator reading settings from source.
func NewCoordinator(source SettingsSource, opts ...Option) (*Coordinator, error) {
	if source == nil {
		return nil, ErrNoSettingsSource
	}

	c := &Coordinator{
		source:   source,
		interval: DefaultInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if c.work == nil {
		c.work = LogWork(c.logger)
	}
	c.logger = c.logger.With(zap.String("component", "coordinator"))

	return c, nil
}

// SetRole records the role for the next iteration of any current or future
// worker. A running worker is not restarted. Roles outside the enumeration
// are logged and ignored.
func (c *Coordinator) SetRole(role Role) {
	if !role.Valid() {
		c.logger.Warn("Invalid role ignored", zap.Int32("role", int32(role)))
		return
	}
	previous := Role(c.role.Swap(int32(role)))
	if previous == role {
		return
	}

	c.logger.Info("Role changed",
		zap.Stringer("old", previous),
		zap.Stringer("new", role),
	)
	c.emit(Event{Type: EventRoleChanged, Role: role, PreviousRole: previous})
}

// Role returns the last role set, RoleResponder if none.
func (c *Coordinator) Role() Role {
	return Role(c.role.Load())
}

// HasWorker reports whether a worker is currently tracked.
func (c *Coordinator) HasWorker() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// CreateWorker starts a worker. If one is already tracked the call changes
// nothing, logs a warning and returns ErrWorkerExists.
func (c *Coordinator) CreateWorker() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if existing := c.current; existing != nil {
		c.mu.Unlock()
		c.logger.Warn("Worker already running, create ignored",
			zap.String("worker_id", existing.id.String()),
		)
		return ErrWorkerExists
	}
	w := c.spawnLocked()
	c.mu.Unlock()

	c.created(w)
	return nil
}

// DeleteWorker raises the stop flag, aborts the worker and forgets it. It
// does not wait for the goroutine to return. Calling it with no worker is a no-op.
func (c *Coordinator) DeleteWorker() {
	c.mu.Lock()
	w := c.current
	c.current = nil
	c.mu.Unlock()

	if w == nil {
		return
	}
	w.abort()
	c.deleted(w)
}

// RecreateWorker replaces the tracked worker (if any) with a new one that has
// its own, clear stop flag. The swap happens under one lock acquisition so no
// concurrent CreateWorker can slip in between.
func (c *Coordinator) RecreateWorker() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	old := c.current
	c.current = nil
	if old != nil {
		old.abort()
	}
	w := c.spawnLocked()
	c.mu.Unlock()

	if old != nil {
		c.deleted(old)
	}
	c.created(w)
	return nil
}

// Status returns a snapshot of the role and the tracked worker.
func (c *Coordinator) Status() Status {
	st := Status{Role: c.Role()}

	c.mu.Lock()
	w := c.current
	c.mu.Unlock()

	if w != nil {
		st.HasWorker = true
		st.WorkerID = w.id.String()
		st.StartedAt = w.started
		st.Iterations = w.iterations.Load()
		st.Failures = w.failures.Load()
		st.Exited = w.exited()
	}
	return st
}

// Shutdown refuses new workers, deletes the current one and waits for every
// worker goroutine to return or for ctx to end.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.DeleteWorker()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Coordinator stopped")
		return nil
	case <-ctx.Done():
		c.logger.Warn("Coordinator shutdown timed out", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

func (c *Coordinator) spawnLocked() *worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := newWorker(cancel)
	c.current = w

	c.wg.Add(1)
	go c.run(ctx, w)
	return w
}

func (c *Coordinator) created(w *worker) {
	role := c.Role()
	c.logger.Info("Worker created",
		zap.String("worker_id", w.id.String()),
		zap.Stringer("role", role),
		zap.Duration("interval", c.interval),
	)
	c.emit(Event{Type: EventWorkerCreated, WorkerID: w.id, Role: role})
}

func (c *Coordinator) deleted(w *worker) {
	c.logger.Info("Worker deleted",
		zap.String("worker_id", w.id.String()),
		zap.Uint64("iterations", w.iterations.Load()),
		zap.Duration("uptime", time.Since(w.started)),
	)
	c.emit(Event{Type: EventWorkerDeleted, WorkerID: w.id, Role: c.Role()})
}

func (c *Coordinator) emit(ev Event) {
	if c.observer == nil {
		return
	}
	ev.Time = time.Now()
	c.observer(ev)
}

// compile-time check
var _ SettingsSource = (*link.Config)(nil)
