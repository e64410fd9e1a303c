// internal/model/link.go
package model

import (
	"time"
)

// LinkStatus is the combined view served by the status endpoint
type LinkStatus struct {
	Connected      bool         `json:"connected"`
	Screen         string       `json:"screen"`
	PreviousScreen string       `json:"previous_screen"`
	Role           string       `json:"role"`
	Worker         WorkerStatus `json:"worker"`
	Settings       LinkSettings `json:"settings"`
	Replacements   uint64       `json:"replacements"`
}

// WorkerStatus describes the tracked background worker
type WorkerStatus struct {
	Running    bool       `json:"running"`
	ID         string     `json:"id,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	Iterations uint64     `json:"iterations"`
	Failures   uint64     `json:"failures"`
	Exited     bool       `json:"exited"`
}

// LinkSettings is the wire form of the link parameters
type LinkSettings struct {
	PortName    string `json:"port_name"`
	BaudRate    uint32 `json:"baud_rate"`
	DataBits    uint8  `json:"data_bits"`
	Parity      string `json:"parity"`
	StopBits    uint8  `json:"stop_bits"`
	FlowControl string `json:"flow_control"`
	TimeoutMS   int64  `json:"timeout_ms"`
	DTROnOpen   *bool  `json:"dtr_on_open,omitempty"`
}

// LinkSettingsPatch is a partial edit; absent fields are left as they are
type LinkSettingsPatch struct {
	PortName    *string `json:"port_name,omitempty"`
	BaudRate    *uint32 `json:"baud_rate,omitempty"`
	DataBits    *uint8  `json:"data_bits,omitempty"`
	Parity      *string `json:"parity,omitempty"`
	StopBits    *uint8  `json:"stop_bits,omitempty"`
	FlowControl *string `json:"flow_control,omitempty"`
	TimeoutMS   *int64  `json:"timeout_ms,omitempty"`
	DTROnOpen   *bool   `json:"dtr_on_open,omitempty"`
}

// PortInfo describes one serial port found on the host
type PortInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"is_usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Product      string `json:"product,omitempty"`
	// Label is what a picker should show: the product name when known
	Label string `json:"label"`
}

// ScreenRequest selects the active screen
type ScreenRequest struct {
	Screen string `json:"screen" binding:"required"`
}

// RoleRequest sets the role directly
type RoleRequest struct {
	Role string `json:"role" binding:"required"`
}
