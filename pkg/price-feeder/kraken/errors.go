package krakenfeeder

import "errors"

var (
	// ErrServiceStopped ...
	ErrServiceStopped = errors.New("kraken price source is stopped")
)
