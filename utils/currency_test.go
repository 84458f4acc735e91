package utils

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return v
}

func TestToReference(t *testing.T) {
	rate := dec(t, "12500")

	got, err := ToReference(dec(t, "100"), CurrencyLocal, rate)
	if err != nil {
		t.Fatalf("ToReference: %v", err)
	}
	if !got.Equal(dec(t, "0.008")) {
		t.Fatalf("100 sum at 12500 = %s usd, want 0.008", got)
	}

	// Identity for reference amounts, even with a broken rate.
	got, err = ToReference(dec(t, "7"), CurrencyReference, decimal.Zero)
	if err != nil {
		t.Fatalf("identity conversion: %v", err)
	}
	if !got.Equal(dec(t, "7")) {
		t.Fatalf("identity conversion changed the amount: %s", got)
	}
}

func TestFromReferenceRoundTrip(t *testing.T) {
	rate := dec(t, "12500")
	ref, err := ToReference(dec(t, "250000"), CurrencyLocal, rate)
	if err != nil {
		t.Fatalf("ToReference: %v", err)
	}
	back, err := FromReference(ref, CurrencyLocal, rate)
	if err != nil {
		t.Fatalf("FromReference: %v", err)
	}
	if !back.Equal(dec(t, "250000")) {
		t.Fatalf("round trip = %s, want 250000", back)
	}
}

func TestToLocal(t *testing.T) {
	got, err := ToLocal(dec(t, "2"), CurrencyReference, dec(t, "12500"))
	if err != nil {
		t.Fatalf("ToLocal: %v", err)
	}
	if !got.Equal(dec(t, "25000")) {
		t.Fatalf("2 usd = %s sum, want 25000", got)
	}

	got, err = ToLocal(dec(t, "300"), CurrencyLocal, decimal.Zero)
	if err != nil {
		t.Fatalf("local identity: %v", err)
	}
	if !got.Equal(dec(t, "300")) {
		t.Fatalf("local identity changed the amount: %s", got)
	}
}

// Conversions never fall back to rate=1.
func TestInvalidRateRejected(t *testing.T) {
	for _, rate := range []decimal.Decimal{decimal.Zero, dec(t, "-1")} {
		if _, err := ToReference(dec(t, "10"), CurrencyLocal, rate); !errors.Is(err, ErrInvalidRate) {
			t.Fatalf("ToReference with rate %s: %v", rate, err)
		}
		if _, err := FromReference(dec(t, "10"), CurrencyLocal, rate); !errors.Is(err, ErrInvalidRate) {
			t.Fatalf("FromReference with rate %s: %v", rate, err)
		}
		if _, err := ToLocal(dec(t, "10"), CurrencyReference, rate); !errors.Is(err, ErrInvalidRate) {
			t.Fatalf("ToLocal with rate %s: %v", rate, err)
		}
	}
}

func TestIsValidCurrency(t *testing.T) {
	if !IsValidCurrency("sum") || !IsValidCurrency("usd") {
		t.Fatal("supported units rejected")
	}
	if IsValidCurrency("eur") || IsValidCurrency("") {
		t.Fatal("unsupported unit accepted")
	}
}
