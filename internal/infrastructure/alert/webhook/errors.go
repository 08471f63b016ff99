package webhookalert

import "errors"

var (
	// ErrInvalidEndpoint ...
	ErrInvalidEndpoint = errors.New("webhook endpoint must be a valid http(s) URL")
)
