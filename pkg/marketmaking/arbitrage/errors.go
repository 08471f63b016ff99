package arbitrage

import "errors"

var (
	// ErrInvalidPrice is returned if the reference price is not positive.
	ErrInvalidPrice = errors.New("reference price must be greater than zero")
)
