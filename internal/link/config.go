// internal/link/config.go
package link

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Config is the link parameter record shared between the control surface
// and the background worker. All access goes through one mutex; each
// accessor acquires it exactly once and never holds it across a call out.
type Config struct {
	mu       sync.Mutex
	settings Settings

	replacements atomic.Uint64
	logger       *zap.Logger
}

// Patch is a partial edit. Nil fields are left untouched.
type Patch struct {
	PortName    *string
	BaudRate    *uint32
	DataBits    *DataBits
	Parity      *Parity
	StopBits    *StopBits
	FlowControl *FlowControl
	Timeout     *time.Duration
	DTROnOpen   *bool
}

// NewConfig creates a record holding initial. A nil logger disables change logging.
func NewConfig(initial Settings, logger *zap.Logger) (*Config, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Config{
		settings: initial.clone(),
		logger:   logger.With(zap.String("component", "link-config")),
	}, nil
}

// Snapshot returns a consistent copy of every field.
func (c *Config) Snapshot() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.clone()
}

// Replacements counts how many times Replace has swapped the whole record.
func (c *Config) Replacements() uint64 {
	return c.replacements.Load()
}

// Replace swaps the whole record in one acquisition.
func (c *Config) Replace(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	old := c.settings
	c.settings = s.clone()
	c.mu.Unlock()

	c.replacements.Inc()
	c.logger.Info("Link settings replaced",
		zap.String("old_port", old.PortName),
		zap.String("new_port", s.PortName),
		zap.Uint32("old_baud_rate", old.BaudRate),
		zap.Uint32("new_baud_rate", s.BaudRate),
	)
	return nil
}

func (c *Config) SetPortName(name string) bool {
	return setField(c, "port_name", func(s *Settings) *string { return &s.PortName }, name)
}

func (c *Config) SetBaudRate(rate uint32) (bool, error) {
	if rate == 0 {
		return false, fmt.Errorf("%w: baud rate must be positive", ErrInvalidSetting)
	}
	return setField(c, "baud_rate", func(s *Settings) *uint32 { return &s.BaudRate }, rate), nil
}

func (c *Config) SetDataBits(bits DataBits) (bool, error) {
	if !bits.valid() {
		return false, fmt.Errorf("%w: data bits must be 5-8, got %d", ErrInvalidSetting, bits)
	}
	return setField(c, "data_bits", func(s *Settings) *DataBits { return &s.DataBits }, bits), nil
}

func (c *Config) SetParity(p Parity) (bool, error) {
	if _, ok := parityNames[p]; !ok {
		return false, fmt.Errorf("%w: parity %d", ErrInvalidSetting, uint8(p))
	}
	return setField(c, "parity", func(s *Settings) *Parity { return &s.Parity }, p), nil
}

func (c *Config) SetStopBits(bits StopBits) (bool, error) {
	if !bits.valid() {
		return false, fmt.Errorf("%w: stop bits must be 1 or 2, got %d", ErrInvalidSetting, bits)
	}
	return setField(c, "stop_bits", func(s *Settings) *StopBits { return &s.StopBits }, bits), nil
}

func (c *Config) SetFlowControl(f FlowControl) (bool, error) {
	if _, ok := flowControlNames[f]; !ok {
		return false, fmt.Errorf("%w: flow control %d", ErrInvalidSetting, uint8(f))
	}
	return setField(c, "flow_control", func(s *Settings) *FlowControl { return &s.FlowControl }, f), nil
}

func (c *Config) SetTimeout(d time.Duration) (bool, error) {
	if d < 0 {
		return false, fmt.Errorf("%w: timeout cannot be negative: %v", ErrInvalidSetting, d)
	}
	return setField(c, "timeout", func(s *Settings) *time.Duration { return &s.Timeout }, d), nil
}

func (c *Config) SetDTROnOpen(enabled bool) bool {
	c.mu.Lock()
	var old *bool
	if c.settings.DTROnOpen != nil {
		v := *c.settings.DTROnOpen
		old = &v
	}
	c.settings.DTROnOpen = &enabled
	c.mu.Unlock()

	if old != nil && *old == enabled {
		return false
	}
	c.logger.Info("Link setting changed",
		zap.String("field", "dtr_on_open"),
		zap.Boolp("old", old),
		zap.Bool("new", enabled),
	)
	return true
}

// Apply validates the whole patch first, then applies it field by field with
// one lock acquisition per field. It returns the names of the fields that
// actually changed.
func (c *Config) Apply(p Patch) ([]string, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	var changed []string
	mark := func(name string, ok bool) {
		if ok {
			changed = append(changed, name)
		}
	}

	if p.PortName != nil {
		mark("port_name", c.SetPortName(*p.PortName))
	}
	if p.BaudRate != nil {
		ok, _ := c.SetBaudRate(*p.BaudRate)
		mark("baud_rate", ok)
	}
	if p.DataBits != nil {
		ok, _ := c.SetDataBits(*p.DataBits)
		mark("data_bits", ok)
	}
	if p.Parity != nil {
		ok, _ := c.SetParity(*p.Parity)
		mark("parity", ok)
	}
	if p.StopBits != nil {
		ok, _ := c.SetStopBits(*p.StopBits)
		mark("stop_bits", ok)
	}
	if p.FlowControl != nil {
		ok, _ := c.SetFlowControl(*p.FlowControl)
		mark("flow_control", ok)
	}
	if p.Timeout != nil {
		ok, _ := c.SetTimeout(*p.Timeout)
		mark("timeout", ok)
	}
	if p.DTROnOpen != nil {
		mark("dtr_on_open", c.SetDTROnOpen(*p.DTROnOpen))
	}
	return changed, nil
}

func (p Patch) validate() error {
	candidate := DefaultSettings()
	if p.BaudRate != nil {
		candidate.BaudRate = *p.BaudRate
	}
	if p.DataBits != nil {
		candidate.DataBits = *p.DataBits
	}
	if p.Parity != nil {
		candidate.Parity = *p.Parity
	}
	if p.StopBits != nil {
		candidate.StopBits = *p.StopBits
	}
	if p.FlowControl != nil {
		candidate.FlowControl = *p.FlowControl
	}
	if p.Timeout != nil {
		candidate.Timeout = *p.Timeout
	}
	return candidate.Validate()
}

// IsEmpty reports whether the patch edits nothing.
func (p Patch) IsEmpty() bool {
	return p.PortName == nil && p.BaudRate == nil && p.DataBits == nil && p.Parity == nil &&
		p.StopBits == nil && p.FlowControl == nil && p.Timeout == nil && p.DTROnOpen == nil
}

func setField[T comparable](c *Config, name string, field func(*Settings) *T, value T) bool {
	c.mu.Lock()
	ptr := field(&c.settings)
	old := *ptr
	*ptr = value
	c.mu.Unlock()

	if old == value {
		return false
	}
	c.logger.Info("Link setting changed",
		zap.String("field", name),
		zap.Any("old", old),
		zap.Any("new", value),
	)
	return true
}
