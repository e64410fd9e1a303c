// internal/service/convert.go
package service

import (
	"fmt"
	"time"

	"link-service/internal/config"
	"link-service/internal/link"
	"link-service/internal/model"
)

// SettingsFromConfig builds the initial link settings from the config file section
func SettingsFromConfig(cfg config.LinkConfig) (link.Settings, error) {
	parity, err := link.ParseParity(cfg.Parity)
	if err != nil {
		return link.Settings{}, err
	}
	flow, err := link.ParseFlowControl(cfg.FlowControl)
	if err != nil {
		return link.Settings{}, err
	}

	s := link.Settings{
		PortName:    cfg.PortName,
		BaudRate:    cfg.BaudRate,
		DataBits:    link.DataBits(cfg.DataBits),
		Parity:      parity,
		StopBits:    link.StopBits(cfg.StopBits),
		FlowControl: flow,
		Timeout:     cfg.Timeout,
	}

	switch cfg.DTROnOpen {
	case "on":
		s.DTROnOpen = boolPtr(true)
	case "off":
		s.DTROnOpen = boolPtr(false)
	case "":
	default:
		return link.Settings{}, fmt.Errorf("%w: dtr_on_open %q", link.ErrInvalidSetting, cfg.DTROnOpen)
	}

	return s, s.Validate()
}

// ToModelSettings converts settings to their wire form
func ToModelSettings(s link.Settings) model.LinkSettings {
	out := model.LinkSettings{
		PortName:    s.PortName,
		BaudRate:    s.BaudRate,
		DataBits:    uint8(s.DataBits),
		Parity:      s.Parity.String(),
		StopBits:    uint8(s.StopBits),
		FlowControl: s.FlowControl.String(),
		TimeoutMS:   s.Timeout.Milliseconds(),
	}
	if s.DTROnOpen != nil {
		out.DTROnOpen = boolPtr(*s.DTROnOpen)
	}
	return out
}

// FromModelSettings parses and validates a full settings document
func FromModelSettings(m model.LinkSettings) (link.Settings, error) {
	parity, err := link.ParseParity(m.Parity)
	if err != nil {
		return link.Settings{}, err
	}
	flow, err := link.ParseFlowControl(m.FlowControl)
	if err != nil {
		return link.Settings{}, err
	}

	s := link.Settings{
		PortName:    m.PortName,
		BaudRate:    m.BaudRate,
		DataBits:    link.DataBits(m.DataBits),
		Parity:      parity,
		StopBits:    link.StopBits(m.StopBits),
		FlowControl: flow,
		Timeout:     time.Duration(m.TimeoutMS) * time.Millisecond,
	}
	if m.DTROnOpen != nil {
		s.DTROnOpen = boolPtr(*m.DTROnOpen)
	}

	return s, s.Validate()
}

// PatchFromModel parses a partial settings document
func PatchFromModel(m model.LinkSettingsPatch) (link.Patch, error) {
	p := link.Patch{
		PortName:  m.PortName,
		BaudRate:  m.BaudRate,
		DTROnOpen: m.DTROnOpen,
	}

	if m.DataBits != nil {
		bits := link.DataBits(*m.DataBits)
		p.DataBits = &bits
	}
	if m.StopBits != nil {
		bits := link.StopBits(*m.StopBits)
		p.StopBits = &bits
	}
	if m.Parity != nil {
		parity, err := link.ParseParity(*m.Parity)
		if err != nil {
			return link.Patch{}, err
		}
		p.Parity = &parity
	}
	if m.FlowControl != nil {
		flow, err := link.ParseFlowControl(*m.FlowControl)
		if err != nil {
			return link.Patch{}, err
		}
		p.FlowControl = &flow
	}
	if m.TimeoutMS != nil {
		timeout := time.Duration(*m.TimeoutMS) * time.Millisecond
		p.Timeout = &timeout
	}

	return p, nil
}

func boolPtr(v bool) *bool {
	return &v
}
