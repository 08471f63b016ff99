package arbitrage

import "errors"

var (
	// ErrPoolsUnavailable is returned when none of the pools could be read.
	ErrPoolsUnavailable = errors.New("failed to read any liquidity pool")
	// ErrMissingLedger ...
	ErrMissingLedger = errors.New("missing ledger")
	// ErrMissingBaseCurrency ...
	ErrMissingBaseCurrency = errors.New("missing base currency")
)
