package ledger

import (
	"context"
	"errors"
	"testing"

	"famspend/internal/core"
	"famspend/internal/fx"
	"famspend/internal/store"
	"famspend/internal/store/memory"
)

// memPending keeps the queue in memory for tests.
type memPending struct {
	writes []PendingWrite
}

func (p *memPending) Load(context.Context) ([]PendingWrite, error) {
	out := make([]PendingWrite, len(p.writes))
	copy(out, p.writes)
	return out, nil
}

func (p *memPending) Replace(_ context.Context, writes []PendingWrite) error {
	p.writes = make([]PendingWrite, len(writes))
	copy(p.writes, writes)
	return nil
}

func (p *memPending) Clear(context.Context) error {
	p.writes = nil
	return nil
}

func testForm() EntryForm {
	return EntryForm{
		FamilyID:     "fam-1",
		CreatedBy:    "user-1",
		CategoryID:   "cat-1",
		CategoryName: "Groceries",
		Date:         "2024-03-01",
		Amount:       "10.00",
		Currency:     "USD",
		Notes:        "weekly shop",
	}
}

func newTestService(t *testing.T, opts ...Option) (*Service, *memory.Store, *memPending) {
	t.Helper()
	entries := memory.New()
	pending := &memPending{}
	rates := fx.Fixed{"USD/EUR": 0.92}
	svc := NewService(entries, rates, pending, "EUR", nil, opts...)
	return svc, entries, pending
}

func TestAddEntryCommits(t *testing.T) {
	svc, entries, pending := newTestService(t)

	res, err := svc.AddEntry(context.Background(), testForm())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Queued {
		t.Fatal("entry should not be queued when the store is reachable")
	}
	if res.Entry.ID == "" {
		t.Fatal("committed entry must carry the store id")
	}
	if res.Entry.AmountOriginalMinor != 1000 || res.Entry.AmountBaseMinor != 920 {
		t.Fatalf("unexpected amounts: %+v", res.Entry)
	}
	if res.Entry.FxRate != 0.92 || res.Entry.CurrencyBase != "EUR" {
		t.Fatalf("unexpected fx fields: %+v", res.Entry)
	}
	if entries.EntryCount() != 1 {
		t.Fatalf("store holds %d entries, want 1", entries.EntryCount())
	}
	if len(pending.writes) != 0 {
		t.Fatalf("queue depth = %d, want 0", len(pending.writes))
	}
}

func TestAddEntryQueuedOnConnectivityFailure(t *testing.T) {
	svc, entries, pending := newTestService(t)
	entries.FailWith(store.Connectivity(errors.New("dial tcp: no route to host")))

	res, err := svc.AddEntry(context.Background(), testForm())
	if err != nil {
		t.Fatalf("connectivity failure must not surface as an error: %v", err)
	}
	if !res.Queued {
		t.Fatal("entry should be queued when the store is unreachable")
	}
	if entries.EntryCount() != 0 {
		t.Fatal("nothing should be committed while offline")
	}
	if got := svc.PendingCount(context.Background()); got != 1 {
		t.Fatalf("pending count = %d, want 1", got)
	}
	w := pending.writes[0]
	if w.Kind != PendingEntry || w.Entry == nil {
		t.Fatalf("unexpected pending write: %+v", w)
	}
	if w.Entry.AmountBaseMinor != 920 || w.Entry.FxRate != 0.92 {
		t.Fatalf("queued entry must carry resolved fx fields: %+v", w.Entry)
	}
}

func TestAddEntryRejectionNeverQueued(t *testing.T) {
	svc, entries, _ := newTestService(t)
	entries.FailWith(store.Rejected(errors.New("family quota exceeded")))

	_, err := svc.AddEntry(context.Background(), testForm())
	if !store.IsRejected(err) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if got := svc.PendingCount(context.Background()); got != 0 {
		t.Fatalf("rejected write must not be queued, pending count = %d", got)
	}
}

func TestAddEntryInvalidInputFailsFast(t *testing.T) {
	svc, entries, _ := newTestService(t)

	bad := testForm()
	bad.Amount = "0.00"
	if _, err := svc.AddEntry(context.Background(), bad); !errors.Is(err, core.ErrNonPositiveAmount) {
		t.Fatalf("expected ErrNonPositiveAmount, got %v", err)
	}

	bad = testForm()
	bad.Date = "01/03/2024"
	if _, err := svc.AddEntry(context.Background(), bad); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if entries.EntryCount() != 0 {
		t.Fatal("invalid input must never reach the store")
	}
}

func TestAddEntrySameCurrencyNeedsNoRate(t *testing.T) {
	entries := memory.New()
	pending := &memPending{}
	// Empty rate table: only the same-currency short circuit can succeed.
	svc := NewService(entries, fx.Fixed{}, pending, "EUR", nil)

	form := testForm()
	form.Currency = "EUR"
	res, err := svc.AddEntry(context.Background(), form)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Entry.FxRate != 1 || res.Entry.AmountBaseMinor != res.Entry.AmountOriginalMinor {
		t.Fatalf("same-currency entry must use rate 1: %+v", res.Entry)
	}
}

func TestReplayDrainsQueue(t *testing.T) {
	svc, entries, _ := newTestService(t)
	entries.FailWith(store.Connectivity(errors.New("offline")))
	if _, err := svc.AddEntry(context.Background(), testForm()); err != nil {
		t.Fatalf("queueing add failed: %v", err)
	}

	entries.FailWith(nil)
	synced, err := svc.Replay(context.Background())
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if synced != 1 {
		t.Fatalf("synced = %d, want 1", synced)
	}
	if got := SyncedMessage(synced); got != "Synced 1 offline change(s)" {
		t.Fatalf("synced message = %q", got)
	}
	if entries.EntryCount() != 1 {
		t.Fatalf("store holds %d entries after replay, want 1", entries.EntryCount())
	}
	if got := svc.PendingCount(context.Background()); got != 0 {
		t.Fatalf("queue depth after drain = %d, want 0", got)
	}
}

func TestReplayKeepsFailuresInOrder(t *testing.T) {
	svc, entries, pending := newTestService(t)
	entries.FailWith(store.Connectivity(errors.New("offline")))

	first := testForm()
	first.Notes = "first"
	second := testForm()
	second.Notes = "second"
	for _, form := range []EntryForm{first, second} {
		if _, err := svc.AddEntry(context.Background(), form); err != nil {
			t.Fatalf("queueing add failed: %v", err)
		}
	}

	// Still offline: nothing syncs, both writes stay queued in order.
	synced, err := svc.Replay(context.Background())
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if synced != 0 {
		t.Fatalf("synced = %d while offline, want 0", synced)
	}
	if len(pending.writes) != 2 ||
		pending.writes[0].Entry.Notes != "first" ||
		pending.writes[1].Entry.Notes != "second" {
		t.Fatalf("queue order not preserved: %+v", pending.writes)
	}

	entries.FailWith(nil)
	if synced, _ = svc.Replay(context.Background()); synced != 2 {
		t.Fatalf("synced = %d after reconnect, want 2", synced)
	}
	if entries.EntryCount() != 2 {
		t.Fatalf("store holds %d entries, want 2", entries.EntryCount())
	}
}

// flakyStore passes the first n writes through and fails the rest.
type flakyStore struct {
	store.EntryStore
	allowed int
}

func (f *flakyStore) CreateEntry(ctx context.Context, e core.LedgerEntry) (string, error) {
	if f.allowed <= 0 {
		return "", store.Connectivity(errors.New("link dropped"))
	}
	f.allowed--
	return f.EntryStore.CreateEntry(ctx, e)
}

func TestReplayPartialSuccessKeepsSecondWrite(t *testing.T) {
	entries := memory.New()
	pending := &memPending{}
	flaky := &flakyStore{EntryStore: entries}
	svc := NewService(flaky, fx.Fixed{"USD/EUR": 0.92}, pending, "EUR", nil)

	for _, notes := range []string{"first", "second"} {
		form := testForm()
		form.Notes = notes
		if _, err := svc.AddEntry(context.Background(), form); err != nil {
			t.Fatalf("queueing add failed: %v", err)
		}
	}

	// Connectivity lasts for exactly one write during replay.
	flaky.allowed = 1
	synced, err := svc.Replay(context.Background())
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if synced != 1 {
		t.Fatalf("synced = %d, want 1", synced)
	}
	if len(pending.writes) != 1 || pending.writes[0].Entry.Notes != "second" {
		t.Fatalf("expected only the second write to remain, got %+v", pending.writes)
	}
	if entries.EntryCount() != 1 {
		t.Fatalf("store holds %d entries, want 1", entries.EntryCount())
	}
}

func TestReplayKeepsRejectedWrites(t *testing.T) {
	svc, entries, pending := newTestService(t)
	entries.FailWith(store.Connectivity(errors.New("offline")))
	if _, err := svc.AddEntry(context.Background(), testForm()); err != nil {
		t.Fatalf("queueing add failed: %v", err)
	}

	entries.FailWith(store.Rejected(errors.New("family closed")))
	synced, err := svc.Replay(context.Background())
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if synced != 0 {
		t.Fatalf("synced = %d, want 0", synced)
	}
	if len(pending.writes) != 1 {
		t.Fatalf("rejected write must stay queued, depth = %d", len(pending.writes))
	}

	// Once the store accepts it, the same write commits.
	entries.FailWith(nil)
	if synced, _ = svc.Replay(context.Background()); synced != 1 {
		t.Fatalf("synced = %d after store recovers, want 1", synced)
	}
	if entries.EntryCount() != 1 {
		t.Fatalf("store holds %d entries, want 1", entries.EntryCount())
	}
}

// eventRecorder captures published notifications for assertions.
type eventRecorder struct {
	changed []string
	synced  map[string]int
}

func (r *eventRecorder) PublishEntryChanged(_ context.Context, familyID string) error {
	r.changed = append(r.changed, familyID)
	return nil
}

func (r *eventRecorder) PublishSyncCompleted(_ context.Context, familyID string, count int) error {
	if r.synced == nil {
		r.synced = make(map[string]int)
	}
	r.synced[familyID] = count
	return nil
}

func TestReplayPublishesPerFamily(t *testing.T) {
	rec := &eventRecorder{}
	entries := memory.New()
	pending := &memPending{}
	svc := NewService(entries, fx.Fixed{"USD/EUR": 0.92}, pending, "EUR", nil, WithEvents(rec))

	entries.FailWith(store.Connectivity(errors.New("offline")))
	for _, fam := range []string{"fam-1", "fam-1", "fam-2"} {
		form := testForm()
		form.FamilyID = fam
		if _, err := svc.AddEntry(context.Background(), form); err != nil {
			t.Fatalf("queueing add failed: %v", err)
		}
	}

	entries.FailWith(nil)
	synced, err := svc.Replay(context.Background())
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if synced != 3 {
		t.Fatalf("synced = %d, want 3", synced)
	}
	if rec.synced["fam-1"] != 2 || rec.synced["fam-2"] != 1 {
		t.Fatalf("sync notifications = %v, want fam-1:2 fam-2:1", rec.synced)
	}

	if len(rec.changed) != 2 || rec.changed[0] != "fam-1" || rec.changed[1] != "fam-2" {
		t.Fatalf("change notifications = %v, want one per family", rec.changed)
	}
}

func TestQueueCapEvictsOldest(t *testing.T) {
	svc, entries, pending := newTestService(t, WithQueueCap(3))
	entries.FailWith(store.Connectivity(errors.New("offline")))

	for _, notes := range []string{"one", "two", "three", "four"} {
		form := testForm()
		form.Notes = notes
		if _, err := svc.AddEntry(context.Background(), form); err != nil {
			t.Fatalf("queueing add failed: %v", err)
		}
	}

	if len(pending.writes) != 3 {
		t.Fatalf("queue depth = %d, want cap 3", len(pending.writes))
	}
	if pending.writes[0].Entry.Notes != "two" || pending.writes[2].Entry.Notes != "four" {
		t.Fatalf("oldest write not evicted: %+v", pending.writes)
	}
}

func TestUpdateEntryRerunsFxResolution(t *testing.T) {
	entries := memory.New()
	pending := &memPending{}
	rates := fx.Fixed{"USD/EUR": 0.92}
	svc := NewService(entries, rates, pending, "EUR", nil)

	res, err := svc.AddEntry(context.Background(), testForm())
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	rates["USD/EUR"] = 0.95
	updated, err := svc.UpdateEntry(context.Background(), res.Entry.ID, testForm())
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.FxRate != 0.95 || updated.AmountBaseMinor != 950 {
		t.Fatalf("edit must re-resolve fx, got rate %v base %d", updated.FxRate, updated.AmountBaseMinor)
	}
}

func TestUpdateEntryConnectivityFailureSurfaces(t *testing.T) {
	svc, entries, _ := newTestService(t)
	res, err := svc.AddEntry(context.Background(), testForm())
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	entries.FailWith(store.Connectivity(errors.New("offline")))
	if _, err := svc.UpdateEntry(context.Background(), res.Entry.ID, testForm()); !store.IsConnectivity(err) {
		t.Fatalf("edits are not queued, expected connectivity error, got %v", err)
	}
	if got := svc.PendingCount(context.Background()); got != 0 {
		t.Fatalf("edit must not be queued, pending count = %d", got)
	}
}

func TestCreateCategoryQueuedOffline(t *testing.T) {
	svc, entries, pending := newTestService(t)
	entries.FailWith(store.Connectivity(errors.New("offline")))

	cat, queued, err := svc.CreateCategory(context.Background(), "fam-1", "Utilities")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !queued {
		t.Fatal("category should be queued while offline")
	}
	if cat.Name != "Utilities" || !cat.Active {
		t.Fatalf("unexpected category: %+v", cat)
	}
	if len(pending.writes) != 1 || pending.writes[0].Kind != PendingCategory {
		t.Fatalf("unexpected queue contents: %+v", pending.writes)
	}

	entries.FailWith(nil)
	if synced, _ := svc.Replay(context.Background()); synced != 1 {
		t.Fatalf("synced = %d, want 1", synced)
	}
	cats, err := svc.ListCategories(context.Background(), "fam-1")
	if err != nil || len(cats) != 1 {
		t.Fatalf("categories after replay = %v (err %v), want 1", cats, err)
	}
}

func TestSummarize(t *testing.T) {
	svc, _, _ := newTestService(t)

	forms := []EntryForm{testForm(), testForm(), testForm()}
	forms[1].CreatedBy = "user-2"
	forms[2].Amount = "5.50"
	for _, f := range forms {
		if _, err := svc.AddEntry(context.Background(), f); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}

	sum, err := svc.Summarize(context.Background(), store.EntryFilter{FamilyID: "fam-1"})
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if sum.Count != 3 {
		t.Fatalf("count = %d, want 3", sum.Count)
	}
	// 920 + 920 + round(550*0.92)=506
	if sum.TotalBaseMinor != 2346 {
		t.Fatalf("total = %d, want 2346", sum.TotalBaseMinor)
	}
	if sum.ByActor["user-1"] != 1426 || sum.ByActor["user-2"] != 920 {
		t.Fatalf("by actor = %v", sum.ByActor)
	}
}
