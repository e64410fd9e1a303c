// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventScreenChanged     EventType = "SCREEN_CHANGED"
	EventConnectionChanged EventType = "CONNECTION_CHANGED"
	EventRoleChanged       EventType = "ROLE_CHANGED"
	EventSettingsUpdated   EventType = "SETTINGS_UPDATED"
	EventSettingsReplaced  EventType = "SETTINGS_REPLACED"
	EventWorkerCreated     EventType = "WORKER_CREATED"
	EventWorkerDeleted     EventType = "WORKER_DELETED"
	EventCycleFailed       EventType = "CYCLE_FAILED"
)

// JSONObject is a free-form event payload
type JSONObject map[string]interface{}

// LinkEvent represents an event in the system
type LinkEvent struct {
	ID        uuid.UUID  `json:"id"`
	EventType EventType  `json:"event_type"`
	Data      JSONObject `json:"data,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Source    string     `json:"source"`
	Severity  string     `json:"severity"` // INFO, WARNING, ERROR
}

// NewLinkEvent stamps a fresh event
func NewLinkEvent(eventType EventType, source string, data JSONObject) LinkEvent {
	return LinkEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Data:      data,
		Timestamp: time.Now(),
		Source:    source,
		Severity:  "INFO",
	}
}
