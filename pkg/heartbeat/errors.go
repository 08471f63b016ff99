package heartbeat

import "errors"

var (
	// ErrDuplicatedName is returned when adding a monitor with a name already
	// used in the group.
	ErrDuplicatedName = errors.New("name already registered in group")
)
