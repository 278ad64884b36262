// Package export renders committed entries as CSV for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"famspend/internal/core"
)

var header = []string{
	"date", "category", "amount", "currency",
	"amount_base", "currency_base", "fx_rate", "fx_date",
	"notes", "created_by",
}

// WriteCSV streams entries to w. Cell values that a spreadsheet would
// interpret as formulas are prefixed with a single quote.
func WriteCSV(w io.Writer, entries []core.LedgerEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		row := []string{
			e.Date.String(),
			guardFormula(e.CategoryName),
			core.ToMajorUnits(e.AmountOriginalMinor),
			string(e.CurrencyOriginal),
			core.ToMajorUnits(e.AmountBaseMinor),
			string(e.CurrencyBase),
			fmt.Sprintf("%g", e.FxRate),
			e.FxDate.String(),
			guardFormula(e.Notes),
			guardFormula(e.CreatedBy),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// guardFormula neutralizes spreadsheet formula injection in free-text cells.
func guardFormula(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t':
		return "'" + s
	}
	if strings.HasPrefix(s, "\r") || strings.HasPrefix(s, "\n") {
		return "'" + strings.TrimLeft(s, "\r\n")
	}
	return s
}
