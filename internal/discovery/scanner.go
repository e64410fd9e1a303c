// internal/discovery/scanner.go
package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"link-service/internal/model"
)

// PortScanner lists the ports one kind of transport offers
type PortScanner interface {
	Scan(ctx context.Context) ([]model.PortInfo, error)
	GetScannerType() string
	IsAvailable() bool
}

// ScannerManager manages all port scanners
type ScannerManager struct {
	mu       sync.RWMutex
	scanners map[string]PortScanner
	logger   *zap.Logger
}

// NewScannerManager creates a new scanner manager
func NewScannerManager(logger *zap.Logger) *ScannerManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScannerManager{
		scanners: make(map[string]PortScanner),
		logger:   logger,
	}
}

// RegisterScanner registers a port scanner
func (sm *ScannerManager) RegisterScanner(scanner PortScanner) {
	scannerType := scanner.GetScannerType()

	sm.mu.Lock()
	sm.scanners[scannerType] = scanner
	sm.mu.Unlock()

	sm.logger.Info("Scanner registered", zap.String("type", scannerType))
}

// ScanAll scans every available scanner. A failing scanner is logged and skipped.
func (sm *ScannerManager) ScanAll(ctx context.Context) ([]model.PortInfo, error) {
	var all []model.PortInfo

	for _, scannerType := range sm.GetAvailableScanners() {
		ports, err := sm.ScanByType(ctx, scannerType)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			sm.logger.Error("Scanner failed", zap.String("type", scannerType), zap.Error(err))
			continue
		}

		all = append(all, ports...)
		sm.logger.Debug("Scanner completed",
			zap.String("type", scannerType),
			zap.Int("ports_found", len(ports)),
		)
	}

	return all, nil
}

// ScanByType scans specific scanner type
func (sm *ScannerManager) ScanByType(ctx context.Context, scannerType string) ([]model.PortInfo, error) {
	sm.mu.RLock()
	scanner, exists := sm.scanners[scannerType]
	sm.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("scanner type not found: %s", scannerType)
	}
	if !scanner.IsAvailable() {
		return nil, fmt.Errorf("scanner not available: %s", scannerType)
	}

	return scanner.Scan(ctx)
}

// GetAvailableScanners returns the available scanner types in name order
func (sm *ScannerManager) GetAvailableScanners() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var available []string
	for scannerType, scanner := range sm.scanners {
		if scanner.IsAvailable() {
			available = append(available, scannerType)
		}
	}
	sort.Strings(available)
	return available
}
