// Package merge combines local inventory and live upstream listings into one
// paginated result, syncing local prices from upstream on the way.
package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"tcgsearch_api/internal/tcg/business/matcher"
	"tcgsearch_api/internal/tcg/models"
	"tcgsearch_api/internal/tcg/pkg/clients"
	"tcgsearch_api/metrics"
	"tcgsearch_api/pkg/logger"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
	bufferFactor    = 3
)

var ErrEmptyQuery = errors.New("search query is empty")

type Inventory interface {
	FindByName(ctx context.Context, text string) ([]models.InventoryRow, error)
	BatchUpdatePrices(ctx context.Context, updates []models.PriceUpdate) (int, error)
}

type Upstream interface {
	Search(ctx context.Context, q clients.SearchQuery) (clients.SearchResult, error)
}

type Counters struct {
	LocalMatchCount    int `json:"localMatchCount"`
	UpstreamMatchCount int `json:"upstreamMatchCount"`
	PriceSyncCount     int `json:"priceSyncCount"`
}

type Result struct {
	models.PageResult
	Counters Counters `json:"counters"`
}

type Merger struct {
	inventory    Inventory
	upstream     Upstream
	currencyCode string
	priceRange   string
	stats        *metrics.SearchMetrics
	log          logger.Logger
}

type Option func(*Merger)

func WithPriceRange(priceRange string) Option {
	return func(m *Merger) { m.priceRange = priceRange }
}

func WithStats(stats *metrics.SearchMetrics) Option {
	return func(m *Merger) { m.stats = stats }
}

func NewMerger(inventory Inventory, upstream Upstream, currencyCode string, log logger.Logger, opts ...Option) *Merger {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	m := &Merger{
		inventory:    inventory,
		upstream:     upstream,
		currencyCode: currencyCode,
		stats:        &metrics.SearchMetrics{},
		log:          log.WithPrefix("[HybridMerger]"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Merger) Stats() *metrics.SearchMetrics {
	return m.stats
}

// upstreamPage is one upstream contribution; err set means the upstream had nothing usable.
type upstreamPage struct {
	result clients.SearchResult
	err    error
}

// Search returns page req.Page of the combined sequence: every local match first,
// then upstream listings in upstream order.
func (m *Merger) Search(ctx context.Context, query string, req models.PageRequest) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, ErrEmptyQuery
	}
	req = normalizePage(req)
	m.stats.Searches.Add(1)

	rows, buffer := m.gather(ctx, query, req.PageSize)

	synced := m.syncPrices(ctx, rows, buffer.result.Items)

	upstreamTotal := 0
	if buffer.err == nil {
		upstreamTotal = buffer.result.TotalUpstreamItems
	}
	total := len(rows) + upstreamTotal

	items := m.stitch(ctx, query, req, rows, buffer)

	return Result{
		PageResult: models.PageResult{
			Items:      items,
			TotalItems: total,
			TotalPages: ceilDiv(total, req.PageSize),
		},
		Counters: Counters{
			LocalMatchCount:    len(rows),
			UpstreamMatchCount: upstreamTotal,
			PriceSyncCount:     synced,
		},
	}, nil
}

func normalizePage(req models.PageRequest) models.PageRequest {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = DefaultPageSize
	}
	if req.PageSize > MaxPageSize {
		req.PageSize = MaxPageSize
	}
	return req
}

// gather runs the local lookup and the upstream matching buffer concurrently.
func (m *Merger) gather(ctx context.Context, query string, pageSize int) ([]models.InventoryRow, upstreamPage) {
	var (
		wg     sync.WaitGroup
		rows   []models.InventoryRow
		buffer upstreamPage
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		found, err := m.inventory.FindByName(ctx, query)
		if err != nil {
			m.log.Log("local lookup for %q failed, continuing upstream-only: %v", query, err)
			return
		}
		rows = found
	}()
	go func() {
		defer wg.Done()
		buffer = m.fetchUpstream(ctx, query, 1, pageSize*bufferFactor)
	}()
	wg.Wait()

	return rows, buffer
}

func (m *Merger) fetchUpstream(ctx context.Context, query string, page, rows int) upstreamPage {
	res, err := m.upstream.Search(ctx, clients.SearchQuery{
		Keyword:    query,
		Page:       page,
		Rows:       rows,
		PriceRange: m.priceRange,
	})
	if err != nil {
		if errors.Is(err, clients.ErrTemporarilyUnavailable) {
			m.stats.UpstreamSkipped.Add(1)
		}
		m.log.Log("upstream page %d for %q unavailable, continuing without it: %v", page, query, err)
		return upstreamPage{err: err}
	}
	return upstreamPage{result: res}
}

// syncPrices rewrites in-memory prices of matched rows and persists them in one batch.
// A failed write is logged and leaves the response untouched.
func (m *Merger) syncPrices(ctx context.Context, rows []models.InventoryRow, candidates []models.Listing) int {
	if len(candidates) == 0 {
		return 0
	}

	var updates []models.PriceUpdate
	for i := range rows {
		match, ok := matcher.Match(rows[i], candidates)
		if !ok || match.PriceMinor <= 0 || match.PriceMinor == rows[i].PriceMinor {
			continue
		}
		rows[i].PriceMinor = match.PriceMinor
		updates = append(updates, models.PriceUpdate{ID: rows[i].ID, PriceMinor: match.PriceMinor})
	}
	if len(updates) == 0 {
		return 0
	}

	n, err := m.inventory.BatchUpdatePrices(ctx, updates)
	metrics.RecordPriceSync(n, err)
	if err != nil {
		m.stats.SyncFailures.Add(1)
		m.log.Log("price sync of %d rows failed: %v", len(updates), fmt.Errorf("batch update: %w", err))
		return 0
	}
	m.stats.PriceSynced.Add(int64(n))
	return n
}

func (m *Merger) stitch(ctx context.Context, query string, req models.PageRequest, rows []models.InventoryRow, buffer upstreamPage) []models.Listing {
	localCount := len(rows)
	start := (req.Page - 1) * req.PageSize
	held := heldVariants(rows)

	items := make([]models.Listing, 0, req.PageSize)

	if start < localCount {
		end := min(start+req.PageSize, localCount)
		for _, row := range rows[start:end] {
			items = append(items, row.Listing(m.currencyCode))
		}
		if buffer.err == nil {
			items = appendUpstream(items, buffer.result.Items, held, req.PageSize)
		}
		return items
	}

	if buffer.err != nil {
		return items
	}

	page := req.Page - localCount/req.PageSize
	if page == 1 {
		return appendUpstream(items, buffer.result.Items, held, req.PageSize)
	}

	deep := m.fetchUpstream(ctx, query, page, req.PageSize)
	if deep.err != nil {
		return items
	}
	return appendUpstream(items, deep.result.Items, held, req.PageSize)
}

// heldVariants lists the variants already represented by a local row.
func heldVariants(rows []models.InventoryRow) map[matcher.VariantKey]struct{} {
	held := make(map[matcher.VariantKey]struct{}, len(rows))
	for _, row := range rows {
		if key, ok := matcher.RowKey(row); ok {
			held[key] = struct{}{}
		}
	}
	return held
}

func appendUpstream(items, upstream []models.Listing, held map[matcher.VariantKey]struct{}, limit int) []models.Listing {
	for _, l := range upstream {
		if len(items) >= limit {
			break
		}
		if _, dup := held[matcher.Key(l)]; dup {
			continue
		}
		items = append(items, l)
	}
	return items
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
