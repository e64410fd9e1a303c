// internal/discovery/serial/scanner.go
package serial

import (
	"context"
	"fmt"
	"sort"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"link-service/internal/model"
)

// listPorts is replaced in tests
var listPorts = enumerator.GetDetailedPortsList

// Scanner enumerates the serial ports present on the host
type Scanner struct {
	logger  *zap.Logger
	usbOnly bool
}

// NewScanner creates a new serial scanner. With usbOnly set, ports that are
// not backed by a USB device (built-in UARTs, ttyS*) are dropped.
func NewScanner(logger *zap.Logger, usbOnly bool) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		logger:  logger.With(zap.String("scanner", "serial")),
		usbOnly: usbOnly,
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "serial"
}

// IsAvailable checks if serial scanning is available
func (s *Scanner) IsAvailable() bool {
	return true
}

// USBOnly reports whether non-USB ports are filtered out
func (s *Scanner) USBOnly() bool {
	return s.usbOnly
}

// WithUSBOnly returns a copy of the scanner with the filter set
func (s *Scanner) WithUSBOnly(usbOnly bool) *Scanner {
	return &Scanner{logger: s.logger, usbOnly: usbOnly}
}

// Scan lists the ports sorted by name
func (s *Scanner) Scan(ctx context.Context) ([]model.PortInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	details, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}

	ports := make([]model.PortInfo, 0, len(details))
	for _, d := range details {
		if d == nil || (s.usbOnly && !d.IsUSB) {
			continue
		}
		ports = append(ports, toPortInfo(d))
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })

	s.logger.Debug("Serial scan completed",
		zap.Int("ports_seen", len(details)),
		zap.Int("ports_listed", len(ports)),
		zap.Bool("usb_only", s.usbOnly),
	)
	return ports, nil
}

func toPortInfo(d *enumerator.PortDetails) model.PortInfo {
	info := model.PortInfo{
		Name:  d.Name,
		IsUSB: d.IsUSB,
		Label: d.Name,
	}
	if d.IsUSB {
		info.VID = d.VID
		info.PID = d.PID
		info.SerialNumber = d.SerialNumber
		info.Product = d.Product
		if d.Product != "" {
			info.Label = d.Product
		}
	}
	return info
}
