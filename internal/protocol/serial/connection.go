// internal/protocol/serial/connection.go
package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"link-service/internal/link"
)

var (
	ErrNotOpen = errors.New("port not open")
	ErrNoPort  = errors.New("no port selected")
)

// Port is the subset of serial.Port the connection uses
type Port interface {
	io.ReadCloser
	SetReadTimeout(t time.Duration) error
	SetDTR(dtr bool) error
	ResetInputBuffer() error
}

// openPort is replaced in tests
var openPort = func(name string, mode *serial.Mode) (Port, error) {
	return serial.Open(name, mode)
}

// Connection represents a serial port connection opened with one settings snapshot
type Connection struct {
	settings link.Settings
	port     Port
	logger   *zap.Logger
	mutex    sync.RWMutex
	isOpen   bool
}

// NewConnection creates a new serial connection
func NewConnection(settings link.Settings, logger *zap.Logger) (*Connection, error) {
	if settings.PortName == "" {
		return nil, ErrNoPort
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Connection{
		settings: settings,
		logger:   logger,
	}, nil
}

// Open opens the serial connection
func (c *Connection) Open(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.isOpen {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Open port
	port, err := openPort(c.settings.PortName, c.settings.Mode())
	if err != nil {
		c.logger.Error("Failed to open serial port",
			zap.Error(err),
			zap.String("port", c.settings.PortName),
		)
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	// Set timeouts
	if err := port.SetReadTimeout(c.settings.Timeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout: %w", err)
	}

	if c.settings.DTROnOpen != nil {
		if err := port.SetDTR(*c.settings.DTROnOpen); err != nil {
			port.Close()
			return fmt.Errorf("failed to set DTR: %w", err)
		}
	}

	if err := port.ResetInputBuffer(); err != nil {
		c.logger.Warn("Failed to reset input buffer", zap.Error(err))
	}

	if c.settings.FlowControl != link.FlowControlNone {
		c.logger.Debug("Flow control is not applied by the driver",
			zap.Stringer("flow_control", c.settings.FlowControl),
		)
	}

	c.port = port
	c.isOpen = true

	c.logger.Info("Serial port opened successfully",
		zap.String("port", c.settings.PortName),
		zap.Uint32("baud_rate", c.settings.BaudRate),
	)

	return nil
}

// Close closes the serial connection. The port is closed outside the lock so
// that a Read blocked in the driver is woken instead of waited for.
func (c *Connection) Close() error {
	c.mutex.Lock()
	port := c.port
	open := c.isOpen
	c.port = nil
	c.isOpen = false
	c.mutex.Unlock()

	if !open || port == nil {
		return nil
	}

	if err := port.Close(); err != nil {
		c.logger.Error("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	c.logger.Info("Serial port closed", zap.String("port", c.settings.PortName))
	return nil
}

// Read reads whatever arrives within the read timeout. It returns an empty
// slice when the timeout expires without data.
func (c *Connection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	c.mutex.RLock()
	port := c.port
	open := c.isOpen
	c.mutex.RUnlock()

	if !open || port == nil {
		return nil, ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buffer := make([]byte, maxBytes)
	n, err := port.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) {
		if !c.IsOpen() {
			return nil, ErrNotOpen
		}
		return nil, fmt.Errorf("failed to read from serial port: %w", err)
	}

	result := make([]byte, n)
	copy(result, buffer[:n])

	if n > 0 {
		c.logger.Debug("Data read from serial port",
			zap.Int("bytes_read", n),
			zap.Binary("data", result),
		)
	}

	return result, nil
}

// IsOpen returns whether the connection is open
func (c *Connection) IsOpen() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.isOpen
}

// Settings returns the snapshot the connection was opened with
func (c *Connection) Settings() link.Settings {
	return c.settings
}
