// internal/link/settings.go
package link

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// DataBits is the number of bits used to represent a character on the line
type DataBits uint8

const (
	DataBits5 DataBits = 5
	DataBits6 DataBits = 6
	DataBits7 DataBits = 7
	DataBits8 DataBits = 8
)

func (d DataBits) valid() bool {
	return d >= DataBits5 && d <= DataBits8
}

// Parity is the parity mode used for error checking
type Parity uint8

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

var parityNames = map[Parity]string{
	ParityNone: "none",
	ParityOdd:  "odd",
	ParityEven: "even",
}

func (p Parity) String() string {
	if name, ok := parityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("parity(%d)", uint8(p))
}

// ParseParity parses "none", "odd" or "even" (case-insensitive)
func ParseParity(s string) (Parity, error) {
	for p, name := range parityNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return p, nil
		}
	}
	return ParityNone, fmt.Errorf("%w: parity %q", ErrInvalidSetting, s)
}

func (p Parity) MarshalText() ([]byte, error) {
	if _, ok := parityNames[p]; !ok {
		return nil, fmt.Errorf("%w: parity %d", ErrInvalidSetting, uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Parity) UnmarshalText(text []byte) error {
	parsed, err := ParseParity(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Parity) serial() serial.Parity {
	switch p {
	case ParityOdd:
		return serial.OddParity
	case ParityEven:
		return serial.EvenParity
	default:
		return serial.NoParity
	}
}

// StopBits is the number of stop bits
type StopBits uint8

const (
	StopBits1 StopBits = 1
	StopBits2 StopBits = 2
)

func (s StopBits) valid() bool {
	return s == StopBits1 || s == StopBits2
}

func (s StopBits) serial() serial.StopBits {
	if s == StopBits2 {
		return serial.TwoStopBits
	}
	return serial.OneStopBit
}

// FlowControl is the signalling used to control data transfer
type FlowControl uint8

const (
	FlowControlNone FlowControl = iota
	FlowControlSoftware
	FlowControlHardware
)

var flowControlNames = map[FlowControl]string{
	FlowControlNone:     "none",
	FlowControlSoftware: "software",
	FlowControlHardware: "hardware",
}

func (f FlowControl) String() string {
	if name, ok := flowControlNames[f]; ok {
		return name
	}
	return fmt.Sprintf("flow_control(%d)", uint8(f))
}

// ParseFlowControl parses "none", "software" or "hardware" (case-insensitive)
func ParseFlowControl(s string) (FlowControl, error) {
	for f, name := range flowControlNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return f, nil
		}
	}
	return FlowControlNone, fmt.Errorf("%w: flow control %q", ErrInvalidSetting, s)
}

func (f FlowControl) MarshalText() ([]byte, error) {
	if _, ok := flowControlNames[f]; !ok {
		return nil, fmt.Errorf("%w: flow control %d", ErrInvalidSetting, uint8(f))
	}
	return []byte(f.String()), nil
}

func (f *FlowControl) UnmarshalText(text []byte) error {
	parsed, err := ParseFlowControl(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Settings is one consistent view of the link parameters.
type Settings struct {
	// PortName is the device path, e.g. /dev/ttyUSB0 or COM3
	PortName string
	// BaudRate in symbols per second
	BaudRate    uint32
	DataBits    DataBits
	Parity      Parity
	StopBits    StopBits
	FlowControl FlowControl
	// Timeout is how long a read waits for data before giving up
	Timeout time.Duration
	// DTROnOpen is the DTR line state applied after opening; nil leaves the driver default
	DTROnOpen *bool
}

// DefaultSettings returns 9600 8N1, no flow control, 100ms timeout.
func DefaultSettings() Settings {
	return Settings{
		BaudRate:    9600,
		DataBits:    DataBits8,
		Parity:      ParityNone,
		StopBits:    StopBits1,
		FlowControl: FlowControlNone,
		Timeout:     100 * time.Millisecond,
	}
}

// Validate checks that every enumerated field holds exactly one legal value.
func (s Settings) Validate() error {
	if s.BaudRate == 0 {
		return fmt.Errorf("%w: baud rate must be positive", ErrInvalidSetting)
	}
	if !s.DataBits.valid() {
		return fmt.Errorf("%w: data bits must be 5-8, got %d", ErrInvalidSetting, s.DataBits)
	}
	if _, ok := parityNames[s.Parity]; !ok {
		return fmt.Errorf("%w: parity %d", ErrInvalidSetting, uint8(s.Parity))
	}
	if !s.StopBits.valid() {
		return fmt.Errorf("%w: stop bits must be 1 or 2, got %d", ErrInvalidSetting, s.StopBits)
	}
	if _, ok := flowControlNames[s.FlowControl]; !ok {
		return fmt.Errorf("%w: flow control %d", ErrInvalidSetting, uint8(s.FlowControl))
	}
	if s.Timeout < 0 {
		return fmt.Errorf("%w: timeout cannot be negative: %v", ErrInvalidSetting, s.Timeout)
	}
	return nil
}

// Equal reports whether two snapshots describe the same link.
func (s Settings) Equal(o Settings) bool {
	if s.PortName != o.PortName || s.BaudRate != o.BaudRate || s.DataBits != o.DataBits ||
		s.Parity != o.Parity || s.StopBits != o.StopBits || s.FlowControl != o.FlowControl ||
		s.Timeout != o.Timeout {
		return false
	}
	if s.DTROnOpen == nil || o.DTROnOpen == nil {
		return s.DTROnOpen == nil && o.DTROnOpen == nil
	}
	return *s.DTROnOpen == *o.DTROnOpen
}

// Mode converts the snapshot into the driver's port mode.
// Flow control and DTR are not part of serial.Mode.
func (s Settings) Mode() *serial.Mode {
	return &serial.Mode{
		BaudRate: int(s.BaudRate),
		DataBits: int(s.DataBits),
		Parity:   s.Parity.serial(),
		StopBits: s.StopBits.serial(),
	}
}

func (s Settings) clone() Settings {
	if s.DTROnOpen != nil {
		dtr := *s.DTROnOpen
		s.DTROnOpen = &dtr
	}
	return s
}
