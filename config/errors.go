package config

import "errors"

var (
	// ErrMissingKey is returned when a required key is not set.
	ErrMissingKey = errors.New("missing required config")
	// ErrInvalidKey is returned when a key is set to an invalid value.
	ErrInvalidKey = errors.New("invalid config")
)
