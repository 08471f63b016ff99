package ledgerrpc

import "errors"

var (
	// ErrInvalidURL is returned for ledger urls that are not http(s) or
	// ws(s).
	ErrInvalidURL = errors.New("invalid ledger url")
	// ErrResponseIDMismatch is returned if the response does not answer the
	// request.
	ErrResponseIDMismatch = errors.New("response id does not match request id")
	// ErrInvalidResult is returned when a result can't be interpreted.
	ErrInvalidResult = errors.New("invalid result")
)
