// internal/task/work.go
package task

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"link-service/internal/link"
)

// Iteration is what a worker hands its body on every loop pass.
type Iteration struct {
	WorkerID uuid.UUID
	// Seq starts at 1 for the first iteration of each worker
	Seq      uint64
	Role     Role
	Settings link.Settings
}

// WorkFunc is one unit of work. It must return promptly once ctx is done.
// A returned error is logged and the loop carries on.
type WorkFunc func(ctx context.Context, it Iteration) error

// LogWork is the placeholder body: it only reports the role it ran in.
func LogWork(logger *zap.Logger) WorkFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(_ context.Context, it Iteration) error {
		logger.Debug("Worker tick",
			zap.String("worker_id", it.WorkerID.String()),
			zap.Uint64("seq", it.Seq),
			zap.Stringer("role", it.Role),
			zap.String("port", it.Settings.PortName),
			zap.Uint32("baud_rate", it.Settings.BaudRate),
		)
		return nil
	}
}
