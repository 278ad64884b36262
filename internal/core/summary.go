package core

// Sum totals AmountBaseMinor across entries. Filtering (date range, user,
// category) is the caller's job; the sum is order-independent.
func Sum(entries []LedgerEntry) int64 {
	var total int64
	for _, e := range entries {
		total += e.AmountBaseMinor
	}
	return total
}

// SumByActor groups the base-currency total by the user who recorded each
// entry.
func SumByActor(entries []LedgerEntry) map[string]int64 {
	byActor := make(map[string]int64)
	for _, e := range entries {
		byActor[e.CreatedBy] += e.AmountBaseMinor
	}
	return byActor
}
