// Package core implements the ledger domain: money parsing, entry building,
// and aggregation over committed entries.
//
// Amounts are stored as integer minor units (cents). Conversion assumes a
// currency with exactly 2 decimal places; currencies with 0 or 3 decimal
// places (JPY, KWD, ...) are not handled correctly. This is a known
// limitation carried over deliberately rather than silently fixed.
package core

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var amountPattern = regexp.MustCompile(`^[0-9]*\.?[0-9]*$`)

// ParsePositiveAmount normalizes a user-entered amount string. It trims
// whitespace, strips thousands separators, and verifies the result is a
// positive decimal number.
//
// Returns ErrInvalidAmount when the string is not numeric and
// ErrNonPositiveAmount when the parsed value is <= 0.
//
// Examples:
//
//	ParsePositiveAmount("12,345.67") -> "12345.67", nil
//	ParsePositiveAmount("0")         -> "", ErrNonPositiveAmount
//	ParsePositiveAmount("-5")        -> "", ErrNonPositiveAmount
//	ParsePositiveAmount("abc")       -> "", ErrInvalidAmount
func ParsePositiveAmount(input string) (string, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(input), ",", "")
	negative := strings.HasPrefix(cleaned, "-")
	if negative {
		cleaned = cleaned[1:]
	}
	if cleaned == "" || cleaned == "." {
		return "", ErrInvalidAmount
	}
	if !amountPattern.MatchString(cleaned) {
		return "", ErrInvalidAmount
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return "", ErrInvalidAmount
	}
	if negative || d.Sign() <= 0 {
		return "", ErrNonPositiveAmount
	}
	return cleaned, nil
}

// ToMinorUnits converts a decimal amount string to integer minor units with
// half-up rounding on the third decimal place.
//
// Examples:
//
//	ToMinorUnits("10.00")  -> 1000, nil
//	ToMinorUnits("12.345") -> 1235, nil
//	ToMinorUnits("x")      -> 0, ErrInvalidAmount
func ToMinorUnits(input string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if cents.Abs().Cmp(decimal.NewFromInt(math.MaxInt64)) > 0 {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// ToMajorUnits formats minor units as a 2-decimal-place string, the inverse
// of ToMinorUnits for integer-cent values. Used to pre-fill edit forms.
func ToMajorUnits(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// BaseAmountMinor applies an FX rate to a minor-unit amount with half-up
// rounding: round(amountMinor * rate). This is the write-time contract
// between AmountOriginalMinor, FxRate, and AmountBaseMinor.
func BaseAmountMinor(amountMinor int64, rate float64) int64 {
	return decimal.NewFromInt(amountMinor).
		Mul(decimal.NewFromFloat(rate)).
		Round(0).
		IntPart()
}
