package pricefeeder

import "errors"

var (
	// ErrInvalidSymbol ...
	ErrInvalidSymbol = errors.New("symbol must be in the form BASE/QUOTE")
	// ErrNotEnoughQuotes is returned by a policy when too few sources returned
	// a price.
	ErrNotEnoughQuotes = errors.New("not enough valid quotes")
	// ErrNoQuorum is returned when the quotes do not agree within tolerance.
	ErrNoQuorum = errors.New("quotes do not reach quorum")
	// ErrInvalidPrice is returned by sources for non positive or unparsable
	// prices.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrPriceNotAvailable is returned when a source has no price for the
	// symbol.
	ErrPriceNotAvailable = errors.New("price not available")
	// ErrStalePrice is returned by streaming sources when the latest price is
	// too old.
	ErrStalePrice = errors.New("latest price is stale")
	// ErrNoSources ...
	ErrNoSources = errors.New("at least one source is required")
)
