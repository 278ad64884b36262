// Package store defines the outbound port to the remote persistence store
// and the failure taxonomy the write path depends on: every failed write is
// either a connectivity failure (eligible for the offline queue) or a
// rejection (never queued).
package store

import (
	"context"

	"famspend/internal/core"
)

// EntryFilter narrows ListEntries. Zero-valued fields are ignored; From/To
// are inclusive calendar-date bounds.
type EntryFilter struct {
	FamilyID   string
	From       core.Date
	To         core.Date
	CategoryID string
	CreatedBy  string
}

// Matches reports whether an entry passes the filter. Shared by adapters
// that filter client-side.
func (f EntryFilter) Matches(e core.LedgerEntry) bool {
	if f.FamilyID != "" && e.FamilyID != f.FamilyID {
		return false
	}
	if f.CategoryID != "" && e.CategoryID != f.CategoryID {
		return false
	}
	if f.CreatedBy != "" && e.CreatedBy != f.CreatedBy {
		return false
	}
	if !f.From.IsZero() && e.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(f.To.Time) {
		return false
	}
	return true
}

// EntryStore is the remote persistence collaborator. Implementations assign
// entry ids on commit and classify every failure as connectivity or
// rejection (see errors.go); the write path queues only the former.
type EntryStore interface {
	// CreateEntry commits a new entry and returns the store-assigned id.
	CreateEntry(ctx context.Context, e core.LedgerEntry) (string, error)

	// ReplaceEntry overwrites the full record identified by e.ID within
	// e.FamilyID. Partial updates are not supported: edits re-run FX
	// resolution and replace everything.
	ReplaceEntry(ctx context.Context, e core.LedgerEntry) error

	// DeleteEntry removes an entry scoped to its owning family.
	DeleteEntry(ctx context.Context, familyID, id string) error

	// ListEntries returns entries matching the filter in no guaranteed
	// order.
	ListEntries(ctx context.Context, filter EntryFilter) ([]core.LedgerEntry, error)

	// CreateCategory commits a new category and returns its id.
	CreateCategory(ctx context.Context, c core.Category) (string, error)

	// ListCategories returns a family's categories.
	ListCategories(ctx context.Context, familyID string) ([]core.Category, error)
}
