package domain

import "errors"

var (
	// ErrInvalidSymbol ...
	ErrInvalidSymbol = errors.New("symbol must be in the form BASE/QUOTE")
	// ErrInvalidCurrencyMapping ...
	ErrInvalidCurrencyMapping = errors.New("currency mapping must be in the form BASE:CODE")
)
