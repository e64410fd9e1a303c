// internal/service/discovery_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"link-service/internal/config"
	"link-service/internal/discovery"
	"link-service/internal/discovery/serial"
	"link-service/internal/model"
	"link-service/internal/utils"
)

// DiscoveryService lists the ports an operator can pick for the link
type DiscoveryService struct {
	scannerManager *discovery.ScannerManager
	serialScanner  *serial.Scanner
	config         *config.DiscoveryConfig
	logger         *utils.ServiceLogger
}

// NewDiscoveryService creates a new discovery service
func NewDiscoveryService(cfg *config.DiscoveryConfig, logger *zap.Logger) *DiscoveryService {
	serviceLogger := utils.NewServiceLogger(logger, "discovery-service")

	ds := &DiscoveryService{
		scannerManager: discovery.NewScannerManager(serviceLogger.Logger),
		serialScanner:  serial.NewScanner(serviceLogger.Logger, cfg.USBOnly),
		config:         cfg,
		logger:         serviceLogger,
	}
	ds.scannerManager.RegisterScanner(ds.serialScanner)

	ds.logger.Info("Discovery scanners initialized",
		zap.Strings("available_scanners", ds.scannerManager.GetAvailableScanners()),
		zap.Bool("usb_only", cfg.USBOnly),
	)

	return ds
}

// ListPorts returns the ports found on the host. includeAll lifts the USB-only filter.
func (ds *DiscoveryService) ListPorts(ctx context.Context, includeAll bool) ([]model.PortInfo, error) {
	if includeAll && ds.serialScanner.USBOnly() {
		ports, err := ds.serialScanner.WithUSBOnly(false).Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list ports: %w", err)
		}
		return ports, nil
	}

	ports, err := ds.scannerManager.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ports: %w", err)
	}
	if ports == nil {
		ports = []model.PortInfo{}
	}
	return ports, nil
}
