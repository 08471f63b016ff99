package signer

import "errors"

var (
	// ErrEmptySeed ...
	ErrEmptySeed = errors.New("seed must not be empty")
	// ErrInvalidKey ...
	ErrInvalidKey = errors.New("seed does not produce a valid private key")
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidSignature ...
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrAmountOutOfRange is returned for amounts not representable as u128.
	ErrAmountOutOfRange = errors.New("amount must fit an unsigned 128 bit integer")
	// ErrLengthOutOfRange ...
	ErrLengthOutOfRange = errors.New("length exceeds compact encoding range")
)
