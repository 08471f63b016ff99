package pricefetcher

import "errors"

var (
	// ErrNoPrices is returned when not a single symbol could be resolved.
	ErrNoPrices = errors.New("failed to fetch price of every symbol")
	// ErrNoSymbols ...
	ErrNoSymbols = errors.New("at least one symbol is required")
	// ErrMissingSource ...
	ErrMissingSource = errors.New("every symbol must have a price source")
	// ErrDuplicatedSymbol ...
	ErrDuplicatedSymbol = errors.New("symbol configured more than once")
	// ErrUnknownSource is returned for unsupported source names.
	ErrUnknownSource = errors.New("unknown price source")
)
