package task

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a coordinator lifecycle notification.
type EventType string

const (
	EventWorkerCreated EventType = "worker_created"
	EventWorkerDeleted EventType = "worker_deleted"
	EventRoleChanged   EventType = "role_changed"
)

// Event is delivered synchronously to the Observer after the state change.
type Event struct {
	Type         EventType
	WorkerID     uuid.UUID
	Role         Role
	PreviousRole Role
	Time         time.Time
}

// Observer receives lifecycle events. It runs on the caller's goroutine and
// must not block or call back into the coordinator's lifecycle methods.
type Observer func(Event)
