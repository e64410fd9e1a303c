// internal/protocol/serial/work.go
package serial

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"link-service/internal/task"
	"link-service/internal/utils"
)

const readChunk = 256

// PortWork is a worker body that keeps the configured port open for the
// lifetime of each worker and drains whatever arrives on it. It implements
// no framing; received bytes are only logged.
type PortWork struct {
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Connection
}

func NewPortWork(logger *zap.Logger) *PortWork {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortWork{
		logger:   logger.With(zap.String("component", "port-work")),
		sessions: make(map[uuid.UUID]*Connection),
	}
}

// Work is a task.WorkFunc. The port is reopened when the settings snapshot
// differs from the one it was opened with, and closed once ctx ends.
func (p *PortWork) Work(ctx context.Context, it task.Iteration) error {
	if it.Settings.PortName == "" {
		p.logger.Debug("No port selected, idling", zap.String("worker_id", it.WorkerID.String()))
		return nil
	}

	conn, err := p.session(ctx, it)
	if err != nil {
		return err
	}

	data, err := conn.Read(ctx, readChunk)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, ErrNotOpen) {
			return nil
		}
		p.drop(it.WorkerID, conn)
		return err
	}

	if len(data) > 0 {
		p.logger.Debug("Link data received",
			zap.String("worker_id", it.WorkerID.String()),
			zap.Stringer("role", it.Role),
			zap.Int("bytes", len(data)),
		)
	}
	return nil
}

// Open returns the number of ports currently held open.
func (p *PortWork) Open() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, conn := range p.sessions {
		if conn.IsOpen() {
			n++
		}
	}
	return n
}

func (p *PortWork) session(ctx context.Context, it task.Iteration) (*Connection, error) {
	p.mu.Lock()
	conn, ok := p.sessions[it.WorkerID]
	p.mu.Unlock()

	if ok && conn.Settings().Equal(it.Settings) {
		return conn, nil
	}
	if ok {
		p.logger.Info("Link settings changed, reopening port",
			zap.String("worker_id", it.WorkerID.String()),
			zap.String("port", it.Settings.PortName),
		)
		p.drop(it.WorkerID, conn)
	}

	portLogger := utils.NewPortLogger(p.logger, it.Settings.PortName, it.WorkerID.String(), it.Role.String())
	conn, err := NewConnection(it.Settings, portLogger.Logger)
	if err != nil {
		return nil, err
	}
	err = conn.Open(ctx)
	portLogger.LogConnection("open", err == nil, err)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.sessions[it.WorkerID] = conn
	p.mu.Unlock()

	id := it.WorkerID
	context.AfterFunc(ctx, func() {
		p.drop(id, conn)
	})
	return conn, nil
}

// drop forgets conn if it is still the worker's session and closes it.
func (p *PortWork) drop(id uuid.UUID, conn *Connection) {
	p.mu.Lock()
	if p.sessions[id] == conn {
		delete(p.sessions, id)
	}
	p.mu.Unlock()

	_ = conn.Close()
}
