package merge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"tcgsearch_api/internal/tcg/business/lang"
	"tcgsearch_api/internal/tcg/models"
	"tcgsearch_api/internal/tcg/pkg/clients"
)

type fakeInventory struct {
	rows      []models.InventoryRow
	findErr   error
	updateErr error

	mu      sync.Mutex
	updates [][]models.PriceUpdate
}

func (f *fakeInventory) FindByName(_ context.Context, _ string) ([]models.InventoryRow, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make([]models.InventoryRow, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeInventory) BatchUpdatePrices(_ context.Context, updates []models.PriceUpdate) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updates)
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	return len(updates), nil
}

// fakeUpstream serves a catalogue of total listings with ids "u1".."uN", paged like the marketplace.
type fakeUpstream struct {
	total int
	extra []models.Listing
	err   error

	mu    sync.Mutex
	calls []clients.SearchQuery
}

func (f *fakeUpstream) Search(_ context.Context, q clients.SearchQuery) (clients.SearchResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	f.mu.Unlock()
	if f.err != nil {
		return clients.SearchResult{}, f.err
	}

	var all []models.Listing
	all = append(all, f.extra...)
	for i := 1; i <= f.total; i++ {
		all = append(all, upstreamListing(fmt.Sprintf("u%d", i), lang.English, false, 100))
	}

	start := (q.Page - 1) * q.Rows
	if start > len(all) {
		start = len(all)
	}
	end := min(start+q.Rows, len(all))
	return clients.SearchResult{
		Items:              all[start:end],
		TotalUpstreamItems: len(all),
		HasNextPage:        end < len(all),
	}, nil
}

func (f *fakeUpstream) recorded() []clients.SearchQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]clients.SearchQuery(nil), f.calls...)
}

func upstreamListing(id string, language lang.Tag, foil bool, price int64) models.Listing {
	return models.Listing{
		ProductID:  id,
		CardName:   "Card " + id,
		Language:   language,
		IsFoil:     foil,
		PriceMinor: price,
		Source:     models.SourceUpstream,
	}
}

func ptr(s string) *string { return &s }

func TestSearchRejectsEmptyQuery(t *testing.T) {
	up := &fakeUpstream{total: 5}
	m := NewMerger(&fakeInventory{}, up, "BRL", nil)

	if _, err := m.Search(context.Background(), "   ", models.PageRequest{Page: 1, PageSize: 12}); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	if len(up.recorded()) != 0 {
		t.Error("no upstream call should happen for an empty query")
	}
}

func TestStitchFirstPageTopsUpWithUpstream(t *testing.T) {
	inv := &fakeInventory{rows: []models.InventoryRow{{ID: 1, Name: "Local Bolt", Language: "EN", PriceMinor: 50}}}
	up := &fakeUpstream{total: 40}
	m := NewMerger(inv, up, "BRL", nil)

	res, err := m.Search(context.Background(), "bolt", models.PageRequest{Page: 1, PageSize: 12})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Items) != 12 {
		t.Fatalf("expected 12 items, got %d", len(res.Items))
	}
	if res.Items[0].Source != models.SourceLocal {
		t.Errorf("first item should be local, got %s", res.Items[0].Source)
	}
	for i, item := range res.Items[1:] {
		want := fmt.Sprintf("u%d", i+1)
		if item.ProductID != want || item.Source != models.SourceUpstream {
			t.Errorf("item %d = %s/%s, want %s from upstream", i+1, item.ProductID, item.Source, want)
		}
	}

	calls := up.recorded()
	if len(calls) != 1 || calls[0].Page != 1 || calls[0].Rows != 36 {
		t.Errorf("expected one buffered call for page 1 with 36 rows, got %+v", calls)
	}
	if res.TotalItems != 41 || res.TotalPages != 4 {
		t.Errorf("totals = %d/%d, want 41/4", res.TotalItems, res.TotalPages)
	}
	if res.Counters.LocalMatchCount != 1 || res.Counters.UpstreamMatchCount != 40 {
		t.Errorf("unexpected counters %+v", res.Counters)
	}
}

func TestStitchDeepPageUsesExactUpstreamPage(t *testing.T) {
	inv := &fakeInventory{rows: []models.InventoryRow{{ID: 1, Name: "Local Bolt", Language: "EN", PriceMinor: 50}}}
	up := &fakeUpstream{total: 40}
	m := NewMerger(inv, up, "BRL", nil)

	res, err := m.Search(context.Background(), "bolt", models.PageRequest{Page: 2, PageSize: 12})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Items) != 12 {
		t.Fatalf("expected 12 items, got %d", len(res.Items))
	}
	if res.Items[0].ProductID != "u13" || res.Items[11].ProductID != "u24" {
		t.Errorf("page 2 should be upstream page 2 (u13..u24), got %s..%s", res.Items[0].ProductID, res.Items[11].ProductID)
	}

	calls := up.recorded()
	if len(calls) != 2 {
		t.Fatalf("expected buffer + deep call, got %d", len(calls))
	}
	if calls[1].Page != 2 || calls[1].Rows != 12 {
		t.Errorf("deep call = page %d rows %d, want page 2 rows 12", calls[1].Page, calls[1].Rows)
	}
}

func TestStitchPageWithinLocals(t *testing.T) {
	var rows []models.InventoryRow
	for i := 1; i <= 15; i++ {
		rows = append(rows, models.InventoryRow{ID: int64(i), Name: fmt.Sprintf("Local %02d", i), Language: "EN"})
	}
	up := &fakeUpstream{total: 30}
	m := NewMerger(&fakeInventory{rows: rows}, up, "BRL", nil)

	res, err := m.Search(context.Background(), "local", models.PageRequest{Page: 2, PageSize: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(res.Items))
	}
	for i := 0; i < 5; i++ {
		if res.Items[i].Source != models.SourceLocal {
			t.Errorf("item %d should be local", i)
		}
	}
	if res.Items[5].ProductID != "u1" {
		t.Errorf("top-up should start with the first upstream listing, got %s", res.Items[5].ProductID)
	}

	res, err = m.Search(context.Background(), "local", models.PageRequest{Page: 3, PageSize: 10})
	if err != nil {
		t.Fatal(err)
	}
	if res.Items[0].ProductID != "u11" {
		t.Errorf("page 3 should be upstream page 2, got %s", res.Items[0].ProductID)
	}
}

func TestPriceSyncStagesMatchedVariants(t *testing.T) {
	inv := &fakeInventory{rows: []models.InventoryRow{
		{ID: 1, Name: "Bolt", ProductID: ptr("p1"), Language: "EN", IsFoil: false, PriceMinor: 10},
		{ID: 2, Name: "Bolt", ProductID: ptr("p1"), Language: "JA", IsFoil: true, PriceMinor: 10},
		{ID: 3, Name: "Bolt", ProductID: ptr("p2"), Language: "EN", PriceMinor: 70},
		{ID: 4, Name: "Bolt", Language: "EN", PriceMinor: 5},
	}}
	up := &fakeUpstream{extra: []models.Listing{
		upstreamListing("p1", lang.English, true, 999),
		upstreamListing("p1", lang.English, false, 120),
		upstreamListing("p2", lang.English, false, 70),
	}}
	m := NewMerger(inv, up, "BRL", nil)

	res, err := m.Search(context.Background(), "bolt", models.PageRequest{Page: 1, PageSize: 12})
	if err != nil {
		t.Fatal(err)
	}

	if len(inv.updates) != 1 {
		t.Fatalf("expected one batch write, got %d", len(inv.updates))
	}
	batch := inv.updates[0]
	if len(batch) != 1 || batch[0] != (models.PriceUpdate{ID: 1, PriceMinor: 120}) {
		t.Errorf("unexpected staged updates %+v", batch)
	}
	if res.Counters.PriceSyncCount != 1 {
		t.Errorf("PriceSyncCount = %d, want 1", res.Counters.PriceSyncCount)
	}
	if res.Items[0].PriceMinor != 120 {
		t.Errorf("response should carry the synced price, got %d", res.Items[0].PriceMinor)
	}
	if res.Items[1].PriceMinor != 10 {
		t.Errorf("foil JA row must keep its price, got %d", res.Items[1].PriceMinor)
	}
	if got := m.Stats().PriceSynced.Load(); got != 1 {
		t.Errorf("stats PriceSynced = %d", got)
	}
}

func TestMatchedUpstreamVariantsAreNotRepeated(t *testing.T) {
	inv := &fakeInventory{rows: []models.InventoryRow{
		{ID: 1, Name: "Bolt", ProductID: ptr("p1"), Language: "ENGLISH", PriceMinor: 10},
	}}
	up := &fakeUpstream{extra: []models.Listing{
		upstreamListing("p1", lang.English, false, 10),
		upstreamListing("p1", lang.English, true, 30),
	}}
	m := NewMerger(inv, up, "BRL", nil)

	res, err := m.Search(context.Background(), "bolt", models.PageRequest{Page: 1, PageSize: 12})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected local row plus the foil variant, got %d items", len(res.Items))
	}
	if res.Items[1].ProductID != "p1" || !res.Items[1].IsFoil {
		t.Errorf("expected the foil upstream variant, got %+v", res.Items[1])
	}
}

func TestPersistenceFailureDoesNotFailSearch(t *testing.T) {
	inv := &fakeInventory{
		rows:      []models.InventoryRow{{ID: 1, Name: "Bolt", ProductID: ptr("p1"), Language: "EN", PriceMinor: 10}},
		updateErr: errors.New("deadlock"),
	}
	up := &fakeUpstream{extra: []models.Listing{upstreamListing("p1", lang.English, false, 50)}}
	m := NewMerger(inv, up, "BRL", nil)

	res, err := m.Search(context.Background(), "bolt", models.PageRequest{Page: 1, PageSize: 12})
	if err != nil {
		t.Fatalf("search must survive a failed price write: %v", err)
	}
	if res.Counters.PriceSyncCount != 0 {
		t.Errorf("PriceSyncCount = %d, want 0", res.Counters.PriceSyncCount)
	}
	if len(res.Items) == 0 {
		t.Error("results must still be returned")
	}
	if m.Stats().SyncFailures.Load() != 1 {
		t.Error("sync failure should be counted")
	}
}

func TestBreakerOpenFallsBackToLocal(t *testing.T) {
	inv := &fakeInventory{rows: []models.InventoryRow{
		{ID: 1, Name: "Bolt A", Language: "EN"},
		{ID: 2, Name: "Bolt B", Language: "EN"},
	}}
	up := &fakeUpstream{err: fmt.Errorf("search: %w", clients.ErrTemporarilyUnavailable)}
	m := NewMerger(inv, up, "BRL", nil)

	res, err := m.Search(context.Background(), "bolt", models.PageRequest{Page: 1, PageSize: 12})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 2 || res.TotalItems != 2 || res.TotalPages != 1 {
		t.Errorf("expected local-only result, got %d items total %d/%d", len(res.Items), res.TotalItems, res.TotalPages)
	}
	if res.Counters.UpstreamMatchCount != 0 {
		t.Errorf("UpstreamMatchCount = %d, want 0", res.Counters.UpstreamMatchCount)
	}
	if m.Stats().UpstreamSkipped.Load() != 1 {
		t.Error("skipped upstream call should be counted")
	}

	res, err = m.Search(context.Background(), "bolt", models.PageRequest{Page: 2, PageSize: 12})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 0 {
		t.Errorf("page beyond locals should be empty while upstream is down, got %d", len(res.Items))
	}
}

func TestLocalFailureFallsBackToUpstream(t *testing.T) {
	inv := &fakeInventory{findErr: errors.New("connection refused")}
	up := &fakeUpstream{total: 5}
	m := NewMerger(inv, up, "BRL", nil)

	res, err := m.Search(context.Background(), "bolt", models.PageRequest{Page: 1, PageSize: 12})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 5 || res.Counters.LocalMatchCount != 0 {
		t.Errorf("expected upstream-only result, got %d items, counters %+v", len(res.Items), res.Counters)
	}
	if len(up.recorded()) != 1 {
		t.Error("page 1 with no locals should reuse the buffer")
	}
}

func TestPageRequestDefaults(t *testing.T) {
	got := normalizePage(models.PageRequest{Page: 0, PageSize: 0})
	if got.Page != 1 || got.PageSize != DefaultPageSize {
		t.Errorf("defaults = %+v", got)
	}
	if got := normalizePage(models.PageRequest{Page: 3, PageSize: 500}); got.PageSize != MaxPageSize {
		t.Errorf("page size should be capped, got %d", got.PageSize)
	}
}
