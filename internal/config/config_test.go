package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8085", cfg.GetServerAddr())
	assert.Equal(t, uint32(9600), cfg.Link.BaudRate)
	assert.Equal(t, uint8(8), cfg.Link.DataBits)
	assert.Equal(t, "none", cfg.Link.Parity)
	assert.Equal(t, uint8(1), cfg.Link.StopBits)
	assert.Equal(t, 100*time.Millisecond, cfg.Link.Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Worker.Interval)
	assert.Equal(t, "log", cfg.Worker.Body)
	assert.True(t, cfg.Discovery.USBOnly)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsDebugEnabled())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9000"
link:
  port_name: /dev/ttyUSB0
  baud_rate: 115200
  parity: even
  dtr_on_open: "on"
worker:
  interval: 250ms
  body: port
app:
  environment: production
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Link.PortName)
	assert.Equal(t, uint32(115200), cfg.Link.BaudRate)
	assert.Equal(t, "even", cfg.Link.Parity)
	assert.Equal(t, "on", cfg.Link.DTROnOpen)
	assert.Equal(t, 250*time.Millisecond, cfg.Worker.Interval)
	assert.Equal(t, "port", cfg.Worker.Body)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDebugEnabled())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("LINK_SERVICE_LINK_BAUD_RATE", "19200")
	t.Setenv("LINK_SERVICE_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, uint32(19200), cfg.Link.BaudRate)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown worker body", body: "worker:\n  body: modbus\n"},
		{name: "zero interval", body: "worker:\n  interval: 0s\n"},
		{name: "bad dtr", body: "link:\n  dtr_on_open: maybe\n"},
		{name: "bad level", body: "logging:\n  level: verbose\n"},
		{name: "bad environment", body: "app:\n  environment: qa\n"},
		{name: "tls without files", body: "server:\n  tls:\n    enabled: true\n"},
		{name: "relative metrics path", body: "metrics:\n  path: metrics\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config validation failed")
		})
	}
}
