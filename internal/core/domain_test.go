package core

import (
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-03-01" {
		t.Fatalf("got %s", d)
	}

	for _, bad := range []string{"", "2024-13-01", "03/01/2024", "2024-3-1", "not-a-date"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q: expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestCurrencyCodeValidate(t *testing.T) {
	for _, ok := range []CurrencyCode{"USD", "EUR", "INR"} {
		if err := ok.Validate(); err != nil {
			t.Fatalf("%s: unexpected error %v", ok, err)
		}
	}
	for _, bad := range []CurrencyCode{"", "usd", "EURO", "E U", "12X"} {
		if err := bad.Validate(); !errors.Is(err, ErrInvalidCurrency) {
			t.Fatalf("%q: expected ErrInvalidCurrency, got %v", bad, err)
		}
	}
}

func TestLedgerEntryValidate(t *testing.T) {
	e, err := BuildEntry(validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.Validate(); err != nil {
		t.Fatalf("built entry must validate: %v", err)
	}

	broken := e
	broken.FxRate = 0
	if err := broken.Validate(); !errors.Is(err, ErrIncompleteEntry) {
		t.Fatalf("expected ErrIncompleteEntry, got %v", err)
	}

	broken = e
	broken.AmountOriginalMinor = -1
	if err := broken.Validate(); !errors.Is(err, ErrNonPositiveAmount) {
		t.Fatalf("expected ErrNonPositiveAmount, got %v", err)
	}
}
