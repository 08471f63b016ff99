package mathutil

import "errors"

var (
	// ErrNegativeValue is returned when converting a negative value to base
	// unit.
	ErrNegativeValue = errors.New("value must not be negative")
	// ErrInvalidBaseUnit is returned when a base unit string is not an integer.
	ErrInvalidBaseUnit = errors.New("invalid base unit value")
	// ErrEmptySet is returned when computing statistics over no values.
	ErrEmptySet = errors.New("empty set of values")
)
