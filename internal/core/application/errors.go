package application

import "errors"

var (
	ErrMissingPriceFetcher = errors.New("missing price fetcher")
	ErrMissingSubmitter    = errors.New("missing oracle submitter")
	ErrMissingLedger       = errors.New("missing ledger")
	ErrInvalidInterval     = errors.New("interval must be greater than zero")
	ErrInvalidNoiseBps     = errors.New("noise basis points must be greater than zero")
	// ErrInvalidPayload is returned by event handlers receiving something
	// other than a price batch.
	ErrInvalidPayload = errors.New("invalid event payload")
)
