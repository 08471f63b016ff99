package dispatcher

import "errors"

var (
	// ErrAlreadyStarted is returned when starting a dispatcher twice.
	ErrAlreadyStarted = errors.New("dispatcher already started")
	// ErrDuplicatedTask is returned when two registrations share a name.
	ErrDuplicatedTask = errors.New("duplicated task name")
	// ErrInvalidInterval is returned for interval tasks with non positive
	// interval.
	ErrInvalidInterval = errors.New("interval must be greater than zero")
	// ErrPanic wraps a value recovered from a panicking task.
	ErrPanic = errors.New("recovered from panic")
)
