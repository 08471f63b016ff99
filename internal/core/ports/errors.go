package ports

import "errors"

var (
	// ErrProtocolMismatch is returned by a Ledger when a submission is
	// rejected because the ledger does not recognize the method used, ie. the
	// negotiated protocol is no longer valid.
	ErrProtocolMismatch = errors.New("ledger rejected the oracle submission protocol")
	// ErrProtocolUnsupported is returned when the ledger exposes none of the
	// known oracle submission protocols.
	ErrProtocolUnsupported = errors.New("ledger supports no known oracle protocol")
	// ErrPoolNotFound is returned when no pool exists for a currency pair.
	ErrPoolNotFound = errors.New("liquidity pool not found")
)
