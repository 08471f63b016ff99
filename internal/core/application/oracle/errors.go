package oracle

import "errors"

var (
	// ErrEmptyBatch is returned when submitting a batch without quotes.
	ErrEmptyBatch = errors.New("price batch is empty")
	// ErrNotOperator is returned when the operator account is not a member
	// of the oracle. This is a configuration error, nothing is submitted.
	ErrNotOperator = errors.New("operator account is not an oracle member")
	// ErrMissingLedger ...
	ErrMissingLedger = errors.New("missing ledger")
	// ErrMissingSigner ...
	ErrMissingSigner = errors.New("missing signer")
	// ErrMissingOracleName ...
	ErrMissingOracleName = errors.New("missing oracle name")
)
