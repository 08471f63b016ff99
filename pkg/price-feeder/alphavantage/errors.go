package alphavantagefeeder

import "errors"

var (
	// ErrMissingAPIKey ...
	ErrMissingAPIKey = errors.New("alpha vantage api key is required")
)
