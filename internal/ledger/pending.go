package ledger

import (
	"time"

	"github.com/google/uuid"

	"famspend/internal/core"
)

// DefaultQueueCap bounds the offline write queue. When a new write would
// exceed the cap the oldest queued write is dropped.
const DefaultQueueCap = 200

// PendingKind discriminates the payload carried by a PendingWrite.
type PendingKind string

const (
	PendingEntry    PendingKind = "entry"
	PendingCategory PendingKind = "category"
)

// PendingWrite is a fully validated write that could not reach the remote
// store because of a connectivity failure. It carries everything needed to
// retry the commit later, including the FX fields resolved at capture time.
type PendingWrite struct {
	ID        string            `json:"id"`
	Kind      PendingKind       `json:"kind"`
	CreatedAt time.Time         `json:"created_at"`
	Entry     *core.LedgerEntry `json:"entry,omitempty"`
	Category  *core.Category    `json:"category,omitempty"`
}

func newEntryWrite(e core.LedgerEntry) PendingWrite {
	return PendingWrite{
		ID:        uuid.NewString(),
		Kind:      PendingEntry,
		CreatedAt: time.Now().UTC(),
		Entry:     &e,
	}
}

func newCategoryWrite(c core.Category) PendingWrite {
	return PendingWrite{
		ID:        uuid.NewString(),
		Kind:      PendingCategory,
		CreatedAt: time.Now().UTC(),
		Category:  &c,
	}
}
