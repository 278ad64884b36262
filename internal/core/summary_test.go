package core

import "testing"

func entry(actor string, baseMinor int64) LedgerEntry {
	return LedgerEntry{CreatedBy: actor, AmountBaseMinor: baseMinor}
}

func TestSum(t *testing.T) {
	if got := Sum(nil); got != 0 {
		t.Fatalf("empty sum = %d, want 0", got)
	}
	entries := []LedgerEntry{entry("a", 100), entry("b", 250), entry("a", 50)}
	if got := Sum(entries); got != 400 {
		t.Fatalf("sum = %d, want 400", got)
	}

	// Order independence.
	reversed := []LedgerEntry{entries[2], entries[1], entries[0]}
	if Sum(reversed) != Sum(entries) {
		t.Fatal("sum must not depend on entry order")
	}
}

func TestSumByActor(t *testing.T) {
	entries := []LedgerEntry{entry("a", 100), entry("b", 250), entry("a", 50)}
	got := SumByActor(entries)
	if len(got) != 2 {
		t.Fatalf("got %d actors, want 2", len(got))
	}
	if got["a"] != 150 || got["b"] != 250 {
		t.Fatalf("unexpected totals: %v", got)
	}
}
