// internal/control/reconciler.go
package control

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"link-service/internal/task"
)

// Lifecycle is the part of the coordinator the reconciler drives.
type Lifecycle interface {
	SetRole(role task.Role)
	Role() task.Role
	HasWorker() bool
	CreateWorker() error
	DeleteWorker()
	RecreateWorker() error
}

// ReplacementCounter reports how many times the link record was swapped wholesale.
type ReplacementCounter interface {
	Replacements() uint64
}

// Action is what a cycle did to the worker.
type Action string

const (
	ActionNone      Action = "none"
	ActionCreated   Action = "created"
	ActionDeleted   Action = "deleted"
	ActionRecreated Action = "recreated"
)

// CycleResult describes one reconciliation pass.
type CycleResult struct {
	Screen      Screen    `json:"screen"`
	Connected   bool      `json:"connected"`
	RoleChanged bool      `json:"role_changed"`
	Role        task.Role `json:"role"`
	Action      Action    `json:"action"`
}

// Reconciler applies the selector and switch state to the coordinator.
type Reconciler struct {
	selector  *Selector
	sw        *Switch
	lifecycle Lifecycle
	counter   ReplacementCounter
	logger    *zap.Logger

	// mu serialises cycles
	mu               sync.Mutex
	lastReplacements uint64
}

type ReconcilerOption func(*Reconciler)

func WithReconcilerLogger(logger *zap.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithReplacements makes a wholesale settings swap restart a running worker
// on the next cycle.
func WithReplacements(counter ReplacementCounter) ReconcilerOption {
	return func(r *Reconciler) {
		r.counter = counter
	}
}

func NewReconciler(selector *Selector, sw *Switch, lifecycle Lifecycle, opts ...ReconcilerOption) (*Reconciler, error) {
	if selector == nil || sw == nil || lifecycle == nil {
		return nil, errors.New("control: selector, switch and lifecycle are required")
	}

	r := &Reconciler{
		selector:  selector,
		sw:        sw,
		lifecycle: lifecycle,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.counter != nil {
		r.lastReplacements = r.counter.Replacements()
	}
	r.logger = r.logger.With(zap.String("component", "reconciler"))
	return r, nil
}

// Cycle settles the role from a screen change first, then reconciles the
// worker with the connectivity sample, so a new worker starts in the right role.
func (r *Reconciler) Cycle() (CycleResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := CycleResult{Action: ActionNone}

	last, current, changed := r.selector.Observe()
	res.Screen = current
	if changed {
		if role, ok := current.Role(); ok {
			r.lifecycle.SetRole(role)
			res.RoleChanged = true
		}
		r.logger.Debug("Screen change observed",
			zap.Stringer("from", last),
			zap.Stringer("to", current),
			zap.Bool("role_changed", res.RoleChanged),
		)
	}

	replaced := r.replacedSinceLastCycle()

	res.Connected = r.sw.Connected()
	hasWorker := r.lifecycle.HasWorker()

	switch {
	case res.Connected && !hasWorker:
		r.lifecycle.SetRole(current.RoleOrDefault())
		err := r.lifecycle.CreateWorker()
		switch {
		case errors.Is(err, task.ErrWorkerExists):
			// a restart got in between the check and the create
			r.logger.Debug("Worker already present, create skipped")
		case err != nil:
			res.Role = r.lifecycle.Role()
			return res, fmt.Errorf("failed to create worker: %w", err)
		default:
			res.Action = ActionCreated
		}

	case !res.Connected && hasWorker:
		r.lifecycle.DeleteWorker()
		res.Action = ActionDeleted

	case res.Connected && hasWorker && replaced:
		if err := r.lifecycle.RecreateWorker(); err != nil {
			res.Role = r.lifecycle.Role()
			return res, fmt.Errorf("failed to recreate worker: %w", err)
		}
		res.Action = ActionRecreated
	}

	res.Role = r.lifecycle.Role()
	if res.Action != ActionNone {
		r.logger.Info("Worker reconciled",
			zap.String("action", string(res.Action)),
			zap.Stringer("screen", current),
			zap.Stringer("role", res.Role),
		)
	}
	return res, nil
}

func (r *Reconciler) replacedSinceLastCycle() bool {
	if r.counter == nil {
		return false
	}
	n := r.counter.Replacements()
	replaced := n != r.lastReplacements
	r.lastReplacements = n
	return replaced
}
