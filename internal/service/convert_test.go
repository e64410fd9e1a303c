package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"link-service/internal/link"
	"link-service/internal/model"
)

func TestSettingsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig().Link
	cfg.PortName = "COM4"
	cfg.Parity = "Odd"
	cfg.FlowControl = "hardware"
	cfg.DTROnOpen = "off"

	s, err := SettingsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "COM4", s.PortName)
	assert.Equal(t, link.ParityOdd, s.Parity)
	assert.Equal(t, link.FlowControlHardware, s.FlowControl)
	require.NotNil(t, s.DTROnOpen)
	assert.False(t, *s.DTROnOpen)

	cfg.DataBits = 9
	_, err = SettingsFromConfig(cfg)
	require.ErrorIs(t, err, link.ErrInvalidSetting)
}

func TestModelSettingsRoundTrip(t *testing.T) {
	t.Parallel()

	s := link.DefaultSettings()
	s.PortName = "/dev/ttyACM0"
	s.Timeout = 250 * time.Millisecond
	s.StopBits = link.StopBits2

	m := ToModelSettings(s)
	assert.Equal(t, int64(250), m.TimeoutMS)
	assert.Equal(t, "none", m.Parity)
	assert.Equal(t, uint8(2), m.StopBits)

	back, err := FromModelSettings(m)
	require.NoError(t, err)
	assert.True(t, back.Equal(s))

	m.FlowControl = "xon"
	_, err = FromModelSettings(m)
	require.ErrorIs(t, err, link.ErrInvalidSetting)
}

func TestPatchFromModel(t *testing.T) {
	t.Parallel()

	parity := "even"
	bits := uint8(7)
	timeout := int64(500)
	p, err := PatchFromModel(model.LinkSettingsPatch{Parity: &parity, DataBits: &bits, TimeoutMS: &timeout})
	require.NoError(t, err)
	require.NotNil(t, p.Parity)
	assert.Equal(t, link.ParityEven, *p.Parity)
	assert.Equal(t, link.DataBits7, *p.DataBits)
	assert.Equal(t, 500*time.Millisecond, *p.Timeout)
	assert.Nil(t, p.BaudRate)

	bad := "space"
	_, err = PatchFromModel(model.LinkSettingsPatch{Parity: &bad})
	require.ErrorIs(t, err, link.ErrInvalidSetting)

	p, err = PatchFromModel(model.LinkSettingsPatch{})
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}
