package scheduler

import "errors"

// Domain errors for the scheduler.
var (
	// ErrInvalidJob is returned when a job has no name, no action or a
	// non-positive period.
	ErrInvalidJob = errors.New("scheduler: invalid job")

	// ErrDuplicateJob is returned when two jobs share a name.
	ErrDuplicateJob = errors.New("scheduler: duplicate job name")

	// ErrAlreadyStarted is returned by Add and Start after Start.
	ErrAlreadyStarted = errors.New("scheduler: already started")
)
