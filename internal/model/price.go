package model

import "github.com/shopspring/decimal"

// Price is a ticket price. It travels as a bare JSON number, the way the
// admin UI submits it, and decodes from either a number or a quoted string.
// Scanning and driver values come from the embedded decimal.
type Price struct {
	decimal.Decimal
}

// NewPrice wraps d.
func NewPrice(d decimal.Decimal) Price { return Price{Decimal: d} }

// MarshalJSON writes the price without quotes.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.String()), nil
}
