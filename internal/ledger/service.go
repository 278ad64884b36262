// Package ledger orchestrates the write path of the family expense ledger:
// parse and validate input, resolve the FX rate, build the immutable entry,
// commit it to the remote store, and fall back to the durable offline queue
// when the store is unreachable.
package ledger

import (
	"context"
	"fmt"

	"famspend/internal/core"
	"famspend/internal/fx"
	applog "famspend/internal/log"
	"famspend/internal/store"
)

// PendingStore persists the offline write queue. Implementations load and
// replace the whole queue; order is preserved across restarts.
type PendingStore interface {
	Load(ctx context.Context) ([]PendingWrite, error)
	Replace(ctx context.Context, writes []PendingWrite) error
	Clear(ctx context.Context) error
}

// EventPublisher fans out change notifications after successful commits.
// A nil publisher disables notifications.
type EventPublisher interface {
	PublishEntryChanged(ctx context.Context, familyID string) error
	PublishSyncCompleted(ctx context.Context, familyID string, count int) error
}

// SyncedMessage is the user-facing confirmation shown after replay drains
// queued writes.
func SyncedMessage(n int) string {
	return fmt.Sprintf("Synced %d offline change(s)", n)
}

type Service struct {
	entries  store.EntryStore
	resolver fx.Resolver
	pending  PendingStore
	events   EventPublisher
	logger   *applog.Logger

	baseCurrency core.CurrencyCode
	queueCap     int
}

type Option func(*Service)

// WithQueueCap overrides DefaultQueueCap.
func WithQueueCap(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueCap = n
		}
	}
}

// WithEvents attaches an event publisher.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func NewService(entries store.EntryStore, resolver fx.Resolver, pending PendingStore, baseCurrency core.CurrencyCode, logger *applog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	s := &Service{
		entries:      entries,
		resolver:     resolver,
		pending:      pending,
		logger:       logger.WithComponent(applog.ComponentLedger),
		baseCurrency: baseCurrency,
		queueCap:     DefaultQueueCap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EntryForm is raw user input for an add or edit, before any parsing.
type EntryForm struct {
	FamilyID     string
	CreatedBy    string
	CategoryID   string
	CategoryName string
	Date         string
	Amount       string
	Currency     string
	Notes        string
}

// AddResult reports how an add ended up: committed remotely (ID set) or
// captured in the offline queue (Queued true, ID empty).
type AddResult struct {
	Entry  core.LedgerEntry
	Queued bool
}

// AddEntry validates the form, resolves the FX rate for the expense date,
// builds the entry and commits it. A connectivity failure from the store
// queues the fully built entry for later replay; a rejection is returned to
// the caller and never queued.
func (s *Service) AddEntry(ctx context.Context, form EntryForm) (AddResult, error) {
	entry, err := s.buildFromForm(ctx, form)
	if err != nil {
		return AddResult{}, err
	}

	id, err := s.entries.CreateEntry(ctx, entry)
	switch {
	case err == nil:
		entry.ID = id
		s.logger.InfoContext(ctx, "Entry committed",
			applog.FieldEntryID, id,
			applog.FieldFamilyID, entry.FamilyID,
			applog.FieldBaseMinor, entry.AmountBaseMinor)
		s.publishChanged(ctx, entry.FamilyID)
		return AddResult{Entry: entry}, nil
	case store.IsConnectivity(err):
		if qErr := s.enqueue(ctx, newEntryWrite(entry)); qErr != nil {
			return AddResult{}, fmt.Errorf("queue entry after connectivity failure: %w", qErr)
		}
		s.logger.WarnContext(ctx, "Store unreachable, entry queued offline",
			applog.FieldFamilyID, entry.FamilyID,
			applog.FieldError, err)
		return AddResult{Entry: entry, Queued: true}, nil
	default:
		return AddResult{}, err
	}
}

// UpdateEntry replaces a committed entry. The FX fields are re-resolved for
// the (possibly changed) expense date; frozen values from the original
// commit are never carried over. Edits are not queued offline: a
// connectivity failure surfaces so the user can retry.
func (s *Service) UpdateEntry(ctx context.Context, id string, form EntryForm) (core.LedgerEntry, error) {
	if id == "" {
		return core.LedgerEntry{}, store.Rejected(fmt.Errorf("%w: missing entry id", store.ErrNotFound))
	}
	entry, err := s.buildFromForm(ctx, form)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	entry.ID = id

	if err := s.entries.ReplaceEntry(ctx, entry); err != nil {
		return core.LedgerEntry{}, err
	}
	s.logger.InfoContext(ctx, "Entry updated",
		applog.FieldEntryID, id,
		applog.FieldFamilyID, entry.FamilyID)
	s.publishChanged(ctx, entry.FamilyID)
	return entry, nil
}

func (s *Service) DeleteEntry(ctx context.Context, familyID, id string) error {
	if err := s.entries.DeleteEntry(ctx, familyID, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Entry deleted",
		applog.FieldEntryID, id,
		applog.FieldFamilyID, familyID)
	s.publishChanged(ctx, familyID)
	return nil
}

// CreateCategory creates a category, queueing it offline on connectivity
// failure like entry adds.
func (s *Service) CreateCategory(ctx context.Context, familyID, name string) (core.Category, bool, error) {
	cat := core.Category{FamilyID: familyID, Name: core.SanitizeNotes(name), Active: true}
	if err := cat.Validate(); err != nil {
		return core.Category{}, false, store.Rejected(err)
	}

	id, err := s.entries.CreateCategory(ctx, cat)
	switch {
	case err == nil:
		cat.ID = id
		return cat, false, nil
	case store.IsConnectivity(err):
		if qErr := s.enqueue(ctx, newCategoryWrite(cat)); qErr != nil {
			return core.Category{}, false, fmt.Errorf("queue category after connectivity failure: %w", qErr)
		}
		s.logger.WarnContext(ctx, "Store unreachable, category queued offline",
			applog.FieldFamilyID, familyID,
			applog.FieldError, err)
		return cat, true, nil
	default:
		return core.Category{}, false, err
	}
}

func (s *Service) ListEntries(ctx context.Context, filter store.EntryFilter) ([]core.LedgerEntry, error) {
	return s.entries.ListEntries(ctx, filter)
}

func (s *Service) ListCategories(ctx context.Context, familyID string) ([]core.Category, error) {
	return s.entries.ListCategories(ctx, familyID)
}

// Summary aggregates committed entries in base currency. Queued writes are
// not included; they have not been committed yet.
type Summary struct {
	Count          int              `json:"count"`
	TotalBaseMinor int64            `json:"total_base_minor"`
	ByActor        map[string]int64 `json:"by_actor"`
}

func (s *Service) Summarize(ctx context.Context, filter store.EntryFilter) (Summary, error) {
	entries, err := s.entries.ListEntries(ctx, filter)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Count:          len(entries),
		TotalBaseMinor: core.Sum(entries),
		ByActor:        core.SumByActor(entries),
	}, nil
}

// PendingCount reports the current queue depth. A corrupt or unreadable
// queue reads as empty.
func (s *Service) PendingCount(ctx context.Context) int {
	writes, err := s.pending.Load(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Pending queue unreadable, treating as empty",
			applog.FieldError, err)
		return 0
	}
	return len(writes)
}

// Replay attempts every queued write oldest first, with at-least-once
// semantics. A write that fails stays in the queue in its original position,
// whether the failure was connectivity or a rejection; one failure does not
// stop later writes from being attempted. The synced count covers
// successfully committed writes only.
func (s *Service) Replay(ctx context.Context) (int, error) {
	writes, err := s.pending.Load(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Pending queue unreadable, treating as empty",
			applog.FieldError, err)
		return 0, nil
	}
	if len(writes) == 0 {
		return 0, nil
	}

	var (
		remaining []PendingWrite
		synced    int
		families  []string
		perFamily = make(map[string]int)
	)
	for _, w := range writes {
		err := s.apply(ctx, w)
		if err != nil {
			if store.IsConnectivity(err) {
				s.logger.WarnContext(ctx, "Queued write still unreachable, keeping",
					applog.FieldError, err)
			} else {
				s.logger.WarnContext(ctx, "Queued write rejected by store, keeping",
					applog.FieldError, err)
			}
			remaining = append(remaining, w)
			continue
		}
		synced++
		if fam := w.familyID(); fam != "" {
			if _, seen := perFamily[fam]; !seen {
				families = append(families, fam)
			}
			perFamily[fam]++
		}
	}

	if len(remaining) == 0 {
		if err := s.pending.Clear(ctx); err != nil {
			return synced, fmt.Errorf("clear drained queue: %w", err)
		}
	} else if err := s.pending.Replace(ctx, remaining); err != nil {
		return synced, fmt.Errorf("persist remaining queue: %w", err)
	}

	if synced > 0 {
		s.logger.InfoContext(ctx, SyncedMessage(synced),
			applog.FieldSyncedCount, synced,
			applog.FieldQueueDepth, len(remaining))
		for _, fam := range families {
			if s.events != nil {
				if err := s.events.PublishSyncCompleted(ctx, fam, perFamily[fam]); err != nil {
					s.logger.WarnContext(ctx, "Failed to publish sync notification",
						applog.FieldFamilyID, fam,
						applog.FieldError, err)
				}
			}
			s.publishChanged(ctx, fam)
		}
	}
	return synced, nil
}

func (s *Service) apply(ctx context.Context, w PendingWrite) error {
	switch w.Kind {
	case PendingEntry:
		if w.Entry == nil {
			return store.Rejected(fmt.Errorf("pending write %s has no entry payload", w.ID))
		}
		_, err := s.entries.CreateEntry(ctx, *w.Entry)
		return err
	case PendingCategory:
		if w.Category == nil {
			return store.Rejected(fmt.Errorf("pending write %s has no category payload", w.ID))
		}
		_, err := s.entries.CreateCategory(ctx, *w.Category)
		return err
	default:
		return store.Rejected(fmt.Errorf("pending write %s has unknown kind %q", w.ID, w.Kind))
	}
}

func (w PendingWrite) familyID() string {
	switch {
	case w.Entry != nil:
		return w.Entry.FamilyID
	case w.Category != nil:
		return w.Category.FamilyID
	default:
		return ""
	}
}

// enqueue appends a write, evicting the oldest queued write when the cap
// would be exceeded.
func (s *Service) enqueue(ctx context.Context, w PendingWrite) error {
	writes, err := s.pending.Load(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Pending queue unreadable, starting fresh",
			applog.FieldError, err)
		writes = nil
	}
	writes = append(writes, w)
	if len(writes) > s.queueCap {
		dropped := len(writes) - s.queueCap
		s.logger.WarnContext(ctx, "Offline queue full, dropping oldest writes",
			applog.FieldQueueDepth, s.queueCap,
			"dropped", dropped)
		writes = writes[dropped:]
	}
	return s.pending.Replace(ctx, writes)
}

func (s *Service) buildFromForm(ctx context.Context, form EntryForm) (core.LedgerEntry, error) {
	date, err := core.ParseDate(form.Date)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	normalized, err := core.ParsePositiveAmount(form.Amount)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	amountMinor, err := core.ToMinorUnits(normalized)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	currency := core.CurrencyCode(form.Currency)
	if err := currency.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}

	rate, err := s.resolver.Resolve(ctx, currency, s.baseCurrency, date)
	if err != nil {
		return core.LedgerEntry{}, err
	}

	return core.BuildEntry(core.EntryInput{
		FamilyID:         form.FamilyID,
		CreatedBy:        form.CreatedBy,
		CategoryID:       form.CategoryID,
		CategoryName:     form.CategoryName,
		Date:             date,
		AmountMinor:      amountMinor,
		CurrencyOriginal: currency,
		CurrencyBase:     s.baseCurrency,
		FxRate:           rate,
		FxDate:           date,
		Notes:            form.Notes,
	})
}

func (s *Service) publishChanged(ctx context.Context, familyID string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEntryChanged(ctx, familyID); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish change notification",
			applog.FieldFamilyID, familyID,
			applog.FieldError, err)
	}
}
