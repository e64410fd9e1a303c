package link

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestDefaultSettings(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	assert.Equal(t, uint32(9600), s.BaudRate)
	assert.Equal(t, DataBits8, s.DataBits)
	assert.Equal(t, ParityNone, s.Parity)
	assert.Equal(t, StopBits1, s.StopBits)
	assert.Equal(t, FlowControlNone, s.FlowControl)
	assert.Equal(t, 100*time.Millisecond, s.Timeout)
	assert.Nil(t, s.DTROnOpen)
	require.NoError(t, s.Validate())
}

func TestSettings_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Settings) {}},
		{name: "seven data bits even parity", mutate: func(s *Settings) { s.DataBits = DataBits7; s.Parity = ParityEven }},
		{name: "zero timeout", mutate: func(s *Settings) { s.Timeout = 0 }},
		{name: "zero baud rate", mutate: func(s *Settings) { s.BaudRate = 0 }, wantErr: true},
		{name: "four data bits", mutate: func(s *Settings) { s.DataBits = 4 }, wantErr: true},
		{name: "nine data bits", mutate: func(s *Settings) { s.DataBits = 9 }, wantErr: true},
		{name: "unknown parity", mutate: func(s *Settings) { s.Parity = 7 }, wantErr: true},
		{name: "zero stop bits", mutate: func(s *Settings) { s.StopBits = 0 }, wantErr: true},
		{name: "unknown flow control", mutate: func(s *Settings) { s.FlowControl = 3 }, wantErr: true},
		{name: "negative timeout", mutate: func(s *Settings) { s.Timeout = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidSetting)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSettings_Mode(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	s.BaudRate = 115200
	s.DataBits = DataBits7
	s.Parity = ParityOdd
	s.StopBits = StopBits2

	mode := s.Mode()
	assert.Equal(t, 115200, mode.BaudRate)
	assert.Equal(t, 7, mode.DataBits)
	assert.Equal(t, serial.OddParity, mode.Parity)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)
}

func TestSettings_Equal(t *testing.T) {
	t.Parallel()

	on, off := true, false
	a := DefaultSettings()
	b := DefaultSettings()
	assert.True(t, a.Equal(b))

	a.DTROnOpen = &on
	assert.False(t, a.Equal(b))

	b.DTROnOpen = &off
	assert.False(t, a.Equal(b))

	again := true
	b.DTROnOpen = &again
	assert.True(t, a.Equal(b))

	b.PortName = "/dev/ttyUSB1"
	assert.False(t, a.Equal(b))
}

func TestSettings_CloneIsDeep(t *testing.T) {
	t.Parallel()

	on := true
	s := DefaultSettings()
	s.DTROnOpen = &on

	c := s.clone()
	*c.DTROnOpen = false
	assert.True(t, *s.DTROnOpen)
}

func TestParseParity(t *testing.T) {
	t.Parallel()

	p, err := ParseParity(" Even ")
	require.NoError(t, err)
	assert.Equal(t, ParityEven, p)

	_, err = ParseParity("mark")
	require.ErrorIs(t, err, ErrInvalidSetting)
}

func TestFlowControl_TextRoundTrip(t *testing.T) {
	t.Parallel()

	var payload struct {
		Flow   FlowControl `json:"flow"`
		Parity Parity      `json:"parity"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"flow":"hardware","parity":"odd"}`), &payload))
	assert.Equal(t, FlowControlHardware, payload.Flow)
	assert.Equal(t, ParityOdd, payload.Parity)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"flow":"hardware","parity":"odd"}`, string(out))

	require.Error(t, json.Unmarshal([]byte(`{"flow":"rts"}`), &payload))
}
