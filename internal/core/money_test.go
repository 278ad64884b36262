package core

import (
	"errors"
	"testing"
)

func TestParsePositiveAmount(t *testing.T) {
	cases := []struct {
		in      string
		out     string
		wantErr error
	}{
		{"12.34", "12.34", nil},
		{" 2.50 ", "2.50", nil},
		{"12,345.67", "12345.67", nil},
		{"1,000", "1000", nil},
		{".5", ".5", nil},
		{"0", "", ErrNonPositiveAmount},
		{"0.00", "", ErrNonPositiveAmount},
		{"-5", "", ErrNonPositiveAmount},
		{"-0.50", "", ErrNonPositiveAmount},
		{"-", "", ErrInvalidAmount},
		{"abc", "", ErrInvalidAmount},
		{"1.2.3", "", ErrInvalidAmount},
		{"1e3", "", ErrInvalidAmount},
		{"", "", ErrInvalidAmount},
		{".", "", ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParsePositiveAmount(tc.in)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("%q: expected %v, got %v", tc.in, tc.wantErr, err)
			}
			continue
		}
		if err != nil || got != tc.out {
			t.Fatalf("%q: expected %q, got %q (err=%v)", tc.in, tc.out, got, err)
		}
	}
}

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"10.00", 1000, true},
		{"1.23", 123, true},
		{"0.01", 1, true},
		{"12.345", 1235, true}, // half-up on the third decimal
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"abc", 0, false},
		{"", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ToMinorUnits(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q: expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

// Round-trip law: for decimal strings with at most 2 fractional digits,
// ToMajorUnits(ToMinorUnits(s)) equals s normalized to 2 decimal places.
func TestMinorMajorRoundTrip(t *testing.T) {
	cases := []struct {
		in         string
		normalized string
	}{
		{"1", "1.00"},
		{"1.5", "1.50"},
		{"0.01", "0.01"},
		{"12345.67", "12345.67"},
		{"999.99", "999.99"},
		{"100", "100.00"},
	}
	for _, tc := range cases {
		minor, err := ToMinorUnits(tc.in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if got := ToMajorUnits(minor); got != tc.normalized {
			t.Fatalf("%q: round trip gave %q, want %q", tc.in, got, tc.normalized)
		}
	}
}

func TestBaseAmountMinor(t *testing.T) {
	cases := []struct {
		minor int64
		rate  float64
		out   int64
	}{
		{1000, 0.92, 920},
		{1000, 1, 1000},
		{333, 0.5, 167}, // 166.5 rounds up
		{1, 0.004, 0},
		{1, 0.005, 0}, // 0.005 is below the rounding midpoint of 0.5
		{1, 0.6, 1},
	}
	for _, tc := range cases {
		if got := BaseAmountMinor(tc.minor, tc.rate); got != tc.out {
			t.Fatalf("BaseAmountMinor(%d, %v) = %d, want %d", tc.minor, tc.rate, got, tc.out)
		}
	}
}
