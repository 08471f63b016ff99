package domain

import (
	"fmt"
	"strings"
)

// Symbol is a trading pair in the form BASE/QUOTE, eg. BTC/USD.
type Symbol string

// ParseSymbol validates s and returns it as Symbol. The pair must be made of
// exactly two non empty parts separated by a slash.
func ParseSymbol(s string) (Symbol, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	base, quote := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if base == "" || quote == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	return Symbol(strings.ToUpper(base) + "/" + strings.ToUpper(quote)), nil
}

func (s Symbol) Base() string {
	base, _, _ := strings.Cut(string(s), "/")
	return base
}

func (s Symbol) Quote() string {
	_, quote, _ := strings.Cut(string(s), "/")
	return quote
}

func (s Symbol) String() string {
	return string(s)
}

// Currency is the code of an asset on the ledger. Every configured Symbol
// maps to exactly one Currency.
type Currency string

func (c Currency) String() string {
	return string(c)
}

// CurrencyMap resolves the ledger currency of a symbol. Symbols without an
// explicit entry map to their base asset.
type CurrencyMap map[string]Currency

// ParseCurrencyMap parses a list of BASE:CODE entries.
func ParseCurrencyMap(entries []string) (CurrencyMap, error) {
	m := make(CurrencyMap, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		base, code, ok := strings.Cut(e, ":")
		base, code = strings.TrimSpace(base), strings.TrimSpace(code)
		if !ok || base == "" || code == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCurrencyMapping, e)
		}
		m[strings.ToUpper(base)] = Currency(code)
	}
	return m, nil
}

// CurrencyOf returns the currency the given symbol is reported under.
func (m CurrencyMap) CurrencyOf(s Symbol) Currency {
	if c, ok := m[s.Base()]; ok {
		return c
	}
	return Currency(s.Base())
}
