package clients

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tcgsearch_api/internal/tcg/models"
)

type IdentityResult struct {
	Items  []models.Listing `json:"items"`
	Errors []string         `json:"errors"`
}

// itemResult is the outcome of one identity lookup; exactly one of listings/err is meaningful.
type itemResult struct {
	id       string
	listings []models.Listing
	err      error
}

// FetchByIdentity looks up each product id, BatchSize requests at a time with BatchPause
// between batches. A failing id never aborts its siblings. hints[i], when present, is
// the card name to search for ids[i].
func (c *SearchClient) FetchByIdentity(ctx context.Context, ids []string, hints []string) IdentityResult {
	results := make([]itemResult, 0, len(ids))

	for start := 0; start < len(ids); start += c.opts.BatchSize {
		if start > 0 && c.opts.BatchPause > 0 {
			timer := time.NewTimer(c.opts.BatchPause)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			for _, id := range ids[start:] {
				results = append(results, itemResult{id: id, err: fmt.Errorf("lookup cancelled: %w", err)})
			}
			break
		}

		end := min(start+c.opts.BatchSize, len(ids))
		batch := make([]itemResult, end-start)

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(slot int, id, hint string) {
				defer wg.Done()
				batch[slot] = c.lookup(ctx, id, hint)
			}(i-start, ids[i], hintAt(hints, i))
		}
		wg.Wait()

		results = append(results, batch...)
	}

	return reduce(results)
}

func (c *SearchClient) lookup(ctx context.Context, id, hint string) itemResult {
	id = strings.TrimSpace(id)
	if id == "" {
		return itemResult{id: id, err: fmt.Errorf("empty product id")}
	}

	keyword := id
	if hint != "" {
		keyword = hint
	}
	res, err := c.Search(ctx, SearchQuery{Keyword: keyword, Page: 1, Rows: identityRows})
	if err != nil {
		return itemResult{id: id, err: err}
	}

	var exact []models.Listing
	for _, item := range res.Items {
		if item.ProductID == id {
			exact = append(exact, item)
		}
	}
	if len(exact) > 0 {
		return itemResult{id: id, listings: exact}
	}

	// Upstream ids go stale while name search stays right, so a hinted lookup returns
	// the whole name query. This can yield false positives.
	if hint != "" && len(res.Items) > 0 {
		c.log.Log("product %s: no exact id match, falling back to %d rows for hint %q", id, len(res.Items), hint)
		return itemResult{id: id, listings: res.Items}
	}
	return itemResult{id: id, err: ErrIdentityNotFound}
}

func reduce(results []itemResult) IdentityResult {
	out := IdentityResult{Items: []models.Listing{}, Errors: []string{}}
	for _, r := range results {
		if r.err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("product %s: %v", r.id, r.err))
			continue
		}
		out.Items = append(out.Items, r.listings...)
	}
	return out
}

func hintAt(hints []string, i int) string {
	if i < len(hints) {
		return strings.TrimSpace(hints[i])
	}
	return ""
}
