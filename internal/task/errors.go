package task

import "errors"

var (
	// ErrWorkerExists is returned by CreateWorker while a worker is tracked.
	ErrWorkerExists = errors.New("task: worker already exists")
	// ErrClosed is returned once the coordinator has been shut down.
	ErrClosed = errors.New("task: coordinator closed")

	ErrNoSettingsSource = errors.New("task: settings source is required")
	ErrInvalidInterval  = errors.New("task: worker interval must be positive")
	ErrInvalidRole      = errors.New("task: invalid role")
)
