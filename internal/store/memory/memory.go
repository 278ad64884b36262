// Package memory provides an in-process EntryStore for development and
// tests. Failures can be injected to exercise the offline write path.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"famspend/internal/core"
	"famspend/internal/store"
)

type Store struct {
	mu         sync.Mutex
	entries    map[string]core.LedgerEntry
	categories map[string]core.Category

	// failWith, when non-nil, is returned by every write until cleared.
	// Tests use store.Connectivity(...) to simulate being offline and
	// store.Rejected(...) to simulate permission/constraint failures.
	failWith error
}

var _ store.EntryStore = (*Store)(nil)

func New() *Store {
	return &Store{
		entries:    make(map[string]core.LedgerEntry),
		categories: make(map[string]core.Category),
	}
}

// FailWith makes subsequent writes fail with err. Pass nil to restore
// normal operation.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *Store) CreateEntry(_ context.Context, e core.LedgerEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", store.Rejected(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return "", s.failWith
	}
	e.ID = uuid.NewString()
	s.entries[e.ID] = e
	return e.ID, nil
}

func (s *Store) ReplaceEntry(_ context.Context, e core.LedgerEntry) error {
	if e.ID == "" {
		return store.Rejected(errors.New("entry id is required"))
	}
	if err := e.Validate(); err != nil {
		return store.Rejected(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	existing, ok := s.entries[e.ID]
	if !ok || existing.FamilyID != e.FamilyID {
		return store.Rejected(fmt.Errorf("%w: entry %s", store.ErrNotFound, e.ID))
	}
	s.entries[e.ID] = e
	return nil
}

func (s *Store) DeleteEntry(_ context.Context, familyID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	existing, ok := s.entries[id]
	if !ok || existing.FamilyID != familyID {
		return store.Rejected(fmt.Errorf("%w: entry %s", store.ErrNotFound, id))
	}
	delete(s.entries, id)
	return nil
}

func (s *Store) ListEntries(_ context.Context, filter store.EntryFilter) ([]core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.LedgerEntry
	for _, e := range s.entries {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (string, error) {
	if err := c.Validate(); err != nil {
		return "", store.Rejected(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return "", s.failWith
	}
	c.ID = uuid.NewString()
	s.categories[c.ID] = c
	return c.ID, nil
}

func (s *Store) ListCategories(_ context.Context, familyID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.FamilyID == familyID {
			out = append(out, c)
		}
	}
	return out, nil
}

// EntryCount reports the number of committed entries. Test helper.
func (s *Store) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
