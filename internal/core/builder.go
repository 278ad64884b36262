package core

import "strings"

// EntryInput carries the validated pieces of a new ledger entry. Callers
// resolve family, actor, and base currency themselves and inject them here;
// nothing is read from ambient state.
type EntryInput struct {
	FamilyID         string
	CreatedBy        string
	CategoryID       string
	CategoryName     string
	Date             Date
	AmountMinor      int64
	CurrencyOriginal CurrencyCode
	CurrencyBase     CurrencyCode
	FxRate           float64
	// FxDate is the as-of date the rate was resolved for. Zero means "same
	// as Date", which is the only case current callers produce.
	FxDate Date
	Notes  string
}

// BuildEntry assembles an immutable LedgerEntry from already-validated
// inputs, deriving AmountBaseMinor = round(AmountMinor * FxRate).
//
// Inputs are re-checked even though upstream validation should have caught
// problems: this is the last gate before persistence and must not depend on
// callers behaving correctly. Returns ErrIncompleteEntry (or a more specific
// sentinel) on any bad input.
func BuildEntry(in EntryInput) (LedgerEntry, error) {
	if strings.TrimSpace(in.FamilyID) == "" || strings.TrimSpace(in.CreatedBy) == "" {
		return LedgerEntry{}, ErrIncompleteEntry
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return LedgerEntry{}, ErrIncompleteEntry
	}
	if err := in.Date.Validate(); err != nil {
		return LedgerEntry{}, err
	}
	if in.AmountMinor <= 0 {
		return LedgerEntry{}, ErrNonPositiveAmount
	}
	if err := in.CurrencyOriginal.Validate(); err != nil {
		return LedgerEntry{}, err
	}
	if err := in.CurrencyBase.Validate(); err != nil {
		return LedgerEntry{}, err
	}
	if in.FxRate <= 0 {
		return LedgerEntry{}, ErrIncompleteEntry
	}

	fxDate := in.FxDate
	if fxDate.IsZero() {
		fxDate = in.Date
	}

	return LedgerEntry{
		FamilyID:            in.FamilyID,
		CreatedBy:           in.CreatedBy,
		CategoryID:          in.CategoryID,
		CategoryName:        in.CategoryName,
		Date:                in.Date,
		AmountOriginalMinor: in.AmountMinor,
		CurrencyOriginal:    in.CurrencyOriginal,
		CurrencyBase:        in.CurrencyBase,
		FxRate:              in.FxRate,
		FxDate:              fxDate,
		AmountBaseMinor:     BaseAmountMinor(in.AmountMinor, in.FxRate),
		Notes:               SanitizeNotes(in.Notes),
	}, nil
}
