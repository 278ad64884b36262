package core

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"
)

// MaxNotesLen bounds the free-text notes field on a ledger entry.
const MaxNotesLen = 500

type (
	// CurrencyCode is an ISO-4217-like 3-letter currency code.
	CurrencyCode string

	// Date is a calendar date with no meaningful time component.
	Date struct {
		time.Time
	}

	// Category is an expense category owned by a family.
	Category struct {
		ID       string `json:"id,omitempty"`
		FamilyID string `json:"family_id"`
		Name     string `json:"name"`
		Active   bool   `json:"active"`
	}

	// LedgerEntry is a single committed expense record. Once committed the
	// FX-related fields (CurrencyBase, FxRate, FxDate, AmountBaseMinor) are
	// frozen; edits replace the whole record and re-run FX resolution.
	LedgerEntry struct {
		ID                  string       `json:"id,omitempty"`
		FamilyID            string       `json:"family_id"`
		CreatedBy           string       `json:"created_by"`
		CategoryID          string       `json:"category_id"`
		CategoryName        string       `json:"category_name,omitempty"`
		Date                Date         `json:"date"`
		AmountOriginalMinor int64        `json:"amount_original_minor"`
		CurrencyOriginal    CurrencyCode `json:"currency_original"`
		CurrencyBase        CurrencyCode `json:"currency_base"`
		FxRate              float64      `json:"fx_rate"`
		FxDate              Date         `json:"fx_date"`
		AmountBaseMinor     int64        `json:"amount_base_minor"`
		Notes               string       `json:"notes,omitempty"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidCurrency   = errors.New("invalid currency code")
	ErrIncompleteEntry   = errors.New("incomplete entry")
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// NewDate creates a Date from year, month, day (UTC midnight).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a strict YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MarshalJSON encodes the date as a YYYY-MM-DD string (empty when zero).
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (c CurrencyCode) Validate() error {
	if !currencyPattern.MatchString(string(c)) {
		return ErrInvalidCurrency
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.FamilyID) == "" {
		return errors.New("category family is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("category name is required")
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	return nil
}

// Validate is the persistence-side sanity check on a fully built entry.
// BuildEntry enforces the same rules before commit; stores run this again
// so a misbehaving caller cannot persist a malformed record.
func (e LedgerEntry) Validate() error {
	if strings.TrimSpace(e.FamilyID) == "" || strings.TrimSpace(e.CreatedBy) == "" {
		return ErrIncompleteEntry
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return ErrIncompleteEntry
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.AmountOriginalMinor <= 0 {
		return ErrNonPositiveAmount
	}
	if err := e.CurrencyOriginal.Validate(); err != nil {
		return err
	}
	if err := e.CurrencyBase.Validate(); err != nil {
		return err
	}
	if e.FxRate <= 0 {
		return ErrIncompleteEntry
	}
	if err := e.FxDate.Validate(); err != nil {
		return err
	}
	if len(e.Notes) > MaxNotesLen {
		return errors.New("notes too long")
	}
	return nil
}

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	htmlTags     = regexp.MustCompile(`<[^>]*>`)
)

// SanitizeNotes strips control characters and HTML tags from free text and
// clamps the result to MaxNotesLen. Rendering layers escape on output; this
// keeps stored text plain and limits CSV/downstream injection surface.
func SanitizeNotes(s string) string {
	s = controlChars.ReplaceAllString(s, "")
	s = htmlTags.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if len(s) > MaxNotesLen {
		s = s[:MaxNotesLen]
	}
	return s
}
