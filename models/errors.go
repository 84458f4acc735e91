package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrorKind classifies domain failures so the HTTP layer can pick a status
// without parsing messages.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindInvalid
	KindConflict
	KindInsufficientStock
	KindInvalidRate
	KindTxAborted
)

// DomainError is the typed failure every core operation returns. It wraps an
// underlying cause where one exists so errors.Is/As keep working.
type DomainError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *DomainError) Unwrap() error { return e.Err }

func NotFound(what string) error {
	return &DomainError{Kind: KindNotFound, Msg: what + " not found"}
}

func Invalid(msg string) error {
	return &DomainError{Kind: KindInvalid, Msg: msg}
}

func Invalidf(format string, args ...any) error {
	return &DomainError{Kind: KindInvalid, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(msg string) error {
	return &DomainError{Kind: KindConflict, Msg: msg}
}

// InsufficientStock names the short product and location so the caller can
// report exactly what blocked the operation.
func InsufficientStock(productName, location string, available, requested decimal.Decimal) error {
	return &DomainError{
		Kind: KindInsufficientStock,
		Msg: fmt.Sprintf("insufficient stock for %q at %s: available %s, requested %s",
			productName, location, available.String(), requested.String()),
	}
}

// InvalidRate rejects conversions with a zero or missing exchange rate.
// A silent rate=1 fallback would corrupt every multi-currency balance.
func InvalidRate(rate decimal.Decimal) error {
	return &DomainError{Kind: KindInvalidRate, Msg: "invalid exchange rate: " + rate.String()}
}

func TxAborted(err error) error {
	return &DomainError{Kind: KindTxAborted, Msg: "transaction aborted", Err: err}
}

// KindOf extracts the ErrorKind from err, or 0 when err is not a DomainError.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

func IsKind(err error, kind ErrorKind) bool { return KindOf(err) == kind }
