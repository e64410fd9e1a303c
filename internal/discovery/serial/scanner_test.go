package serial

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func stubPorts(t *testing.T, ports []*enumerator.PortDetails, err error) {
	t.Helper()
	orig := listPorts
	listPorts = func() ([]*enumerator.PortDetails, error) { return ports, err }
	t.Cleanup(func() { listPorts = orig })
}

func samplePorts() []*enumerator.PortDetails {
	return []*enumerator.PortDetails{
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "0403", PID: "6001", SerialNumber: "A1", Product: "FT232R USB UART"},
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "2341", PID: "0043"},
	}
}

// Tests below swap a package variable and so do not run in parallel.

func TestScanner_USBOnly(t *testing.T) {
	stubPorts(t, samplePorts(), nil)

	ports, err := NewScanner(nil, true).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, ports, 2)

	assert.Equal(t, "/dev/ttyACM0", ports[0].Name)
	assert.Equal(t, "/dev/ttyACM0", ports[0].Label)
	assert.Equal(t, "/dev/ttyUSB1", ports[1].Name)
	assert.Equal(t, "FT232R USB UART", ports[1].Label)
	assert.Equal(t, "0403", ports[1].VID)
}

func TestScanner_AllPorts(t *testing.T) {
	stubPorts(t, samplePorts(), nil)

	s := NewScanner(nil, true).WithUSBOnly(false)
	assert.False(t, s.USBOnly())

	ports, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, ports, 3)
	assert.Equal(t, "/dev/ttyS0", ports[1].Name)
	assert.False(t, ports[1].IsUSB)
}

func TestScanner_EnumeratorError(t *testing.T) {
	stubPorts(t, nil, errors.New("no sysfs"))

	_, err := NewScanner(nil, true).Scan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get serial ports")
}

func TestScanner_CancelledContext(t *testing.T) {
	stubPorts(t, samplePorts(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewScanner(nil, false).Scan(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
