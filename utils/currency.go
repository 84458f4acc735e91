package utils

import (
	"errors"

	"github.com/shopspring/decimal"
)

// The shop keeps its books in local "sum" units and compares heterogeneous
// amounts through the reference "usd" unit. Rate is the number of local units
// per one reference unit, supplied by the caller as a snapshot.
const (
	CurrencyLocal     = "sum"
	CurrencyReference = "usd"
)

// ErrInvalidRate is returned when a conversion would divide by a zero or
// negative rate. Conversions never fall back to rate=1.
var ErrInvalidRate = errors.New("invalid exchange rate")

// IsValidCurrency reports whether c is one of the two supported units.
func IsValidCurrency(c string) bool {
	return c == CurrencyLocal || c == CurrencyReference
}

// ToReference converts amount from the given currency into reference units.
// Identity when the amount is already in the reference currency.
func ToReference(amount decimal.Decimal, currency string, rate decimal.Decimal) (decimal.Decimal, error) {
	if currency == CurrencyReference {
		return amount, nil
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidRate
	}
	return amount.Div(rate), nil
}

// FromReference converts amount in reference units into the target currency.
func FromReference(amount decimal.Decimal, targetCurrency string, rate decimal.Decimal) (decimal.Decimal, error) {
	if targetCurrency == CurrencyReference {
		return amount, nil
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidRate
	}
	return amount.Mul(rate), nil
}

// ToLocal converts amount from the given currency into local units.
func ToLocal(amount decimal.Decimal, currency string, rate decimal.Decimal) (decimal.Decimal, error) {
	if currency == CurrencyLocal {
		return amount, nil
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidRate
	}
	return amount.Mul(rate), nil
}
