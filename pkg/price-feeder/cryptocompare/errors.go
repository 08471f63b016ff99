package cryptocomparefeeder

import "errors"

var (
	// ErrMissingAPIKey ...
	ErrMissingAPIKey = errors.New("cryptocompare api key is required")
)
