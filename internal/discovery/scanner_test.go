package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"link-service/internal/model"
)

type stubScanner struct {
	kind      string
	available bool
	ports     []model.PortInfo
	err       error
}

func (s stubScanner) Scan(context.Context) ([]model.PortInfo, error) { return s.ports, s.err }
func (s stubScanner) GetScannerType() string { return s.kind }
func (s stubScanner) IsAvailable() bool { return s.available }

func TestScannerManager(t *testing.T) {
	t.Parallel()

	sm := NewScannerManager(nil)
	sm.RegisterScanner(stubScanner{kind: "serial", available: true, ports: []model.PortInfo{{Name: "COM3"}}})
	sm.RegisterScanner(stubScanner{kind: "broken", available: true, err: errors.New("boom")})
	sm.RegisterScanner(stubScanner{kind: "offline", available: false, ports: []model.PortInfo{{Name: "x"}}})

	assert.Equal(t, []string{"broken", "serial"}, sm.GetAvailableScanners())

	ports, err := sm.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.PortInfo{{Name: "COM3"}}, ports)

	_, err = sm.ScanByType(context.Background(), "offline")
	require.Error(t, err)
	_, err = sm.ScanByType(context.Background(), "tcp")
	require.Error(t, err)
}
