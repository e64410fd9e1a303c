package task

import (
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the pause between two worker iterations.
const DefaultInterval = 100 * time.Millisecond

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(c *Coordinator) {
		c.interval = d
	}
}

// WithWork replaces the placeholder body.
func WithWork(work WorkFunc) Option {
	return func(c *Coordinator) {
		if work != nil {
			c.work = work
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(c *Coordinator) {
		c.observer = observer
	}
}
