package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"tcgsearch_api/internal/tcg/business/normalize"
	"tcgsearch_api/internal/tcg/models"
	"tcgsearch_api/internal/tcg/pkg/breaker"
	"tcgsearch_api/metrics"
	"tcgsearch_api/pkg/logger"
)

var (
	ErrTemporarilyUnavailable = errors.New("upstream temporarily unavailable")
	ErrAnomalousResponse      = errors.New("upstream returned an anomalous response")
	ErrMalformedShape         = errors.New("upstream response is missing the search envelope")
	ErrIdentityNotFound       = errors.New("product not found upstream")
	ErrEmptyKeyword           = errors.New("empty search keyword")
)

const (
	DefaultRows    = 12
	maxBodyBytes   = 8 << 20
	identityRows   = 60
	defaultTimeout = 15 * time.Second

	DefaultBatchSize  = 5
	DefaultBatchPause = 200 * time.Millisecond
)

type Options struct {
	BaseURL           string
	SearchPath        string
	UserAgent         string
	Referer           string
	Origin            string
	Timeout           time.Duration
	CacheTTL          time.Duration
	RequestsPerSecond float64
	BatchSize         int
	BatchPause        time.Duration
	HTTPClient        *http.Client
}

type SearchQuery struct {
	Keyword    string
	Page       int
	Rows       int
	PriceRange string
}

type SearchResult struct {
	Items              []models.Listing `json:"items"`
	TotalUpstreamItems int              `json:"totalUpstreamItems"`
	HasNextPage        bool             `json:"hasNextPage"`
}

// SearchClient talks to the marketplace search endpoint. One instance is shared by the
// whole process so that the breaker and the limiter see every request.
type SearchClient struct {
	opts       Options
	client     *http.Client
	breaker    *breaker.CircuitBreaker
	normalizer *normalize.Normalizer
	limiter    *rate.Limiter
	pages      *cache.Cache
	log        logger.Logger
}

func NewSearchClient(opts Options, cb *breaker.CircuitBreaker, normalizer *normalize.Normalizer, log logger.Logger) *SearchClient {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	// zero means unset; a negative pause disables pausing
	switch {
	case opts.BatchPause == 0:
		opts.BatchPause = DefaultBatchPause
	case opts.BatchPause < 0:
		opts.BatchPause = 0
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if cb == nil {
		cb = breaker.New(breaker.DefaultThreshold, breaker.DefaultCooldown)
	}
	if normalizer == nil {
		normalizer = normalize.NewNormalizer(nil, "")
	}
	if log == nil {
		log = logger.NewDiscardLogger()
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.BatchSize

	var pages *cache.Cache
	if opts.CacheTTL > 0 {
		pages = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}

	return &SearchClient{
		opts:       opts,
		client:     client,
		breaker:    cb,
		normalizer: normalizer,
		limiter:    rate.NewLimiter(limit, burst),
		pages:      pages,
		log:        log.WithPrefix("[SearchClient]"),
	}
}

func (c *SearchClient) Breaker() *breaker.CircuitBreaker {
	return c.breaker
}

// FirstFace keeps only the front face of a double-faced card name.
func FirstFace(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.Index(name, " // "); i >= 0 {
		name = name[:i]
	}
	if i := strings.Index(name, " / "); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// Search returns one upstream page of canonical listings. A non-2xx status is a soft,
// empty result; breaker suspension, anomalous bodies and malformed envelopes are errors.
func (c *SearchClient) Search(ctx context.Context, q SearchQuery) (SearchResult, error) {
	keyword := FirstFace(q.Keyword)
	if keyword == "" {
		return SearchResult{}, ErrEmptyKeyword
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Rows < 1 {
		q.Rows = DefaultRows
	}

	env, err := c.query(ctx, keyword, q.Page, q.Rows, q.PriceRange)
	if err != nil {
		return SearchResult{}, err
	}

	items := make([]models.Listing, 0, len(env.Docs))
	for _, doc := range env.Docs {
		items = append(items, c.normalizer.Normalize(doc))
	}
	return SearchResult{
		Items:              items,
		TotalUpstreamItems: env.NumFound,
		HasNextPage:        q.Page*q.Rows < env.NumFound,
	}, nil
}

func (c *SearchClient) query(ctx context.Context, keyword string, page, rows int, priceRange string) (Envelope, error) {
	params := url.Values{}
	params.Set("kw", keyword)
	params.Set("page", strconv.Itoa(page))
	params.Set("rows", strconv.Itoa(rows))
	if priceRange != "" {
		params.Set("fq.price", priceRange)
	}
	key := params.Encode()

	if err := c.breaker.Allow(); err != nil {
		metrics.RecordUpstream("breaker_open")
		return Envelope{}, fmt.Errorf("%w: %v", ErrTemporarilyUnavailable, err)
	}

	if c.pages != nil {
		if cached, ok := c.pages.Get(key); ok {
			c.breaker.ReleaseTrial()
			return cached.(Envelope), nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.breaker.ReleaseTrial()
		return Envelope{}, fmt.Errorf("rate limiter error: %w", err)
	}

	resp := c.do(ctx, key)
	metrics.RecordUpstream(resp.Kind.String())

	switch resp.Kind {
	case KindStructured:
		c.breaker.RecordSuccess()
		if c.pages != nil {
			c.pages.SetDefault(key, resp.Envelope)
		}
		return resp.Envelope, nil
	case KindAnomalousHTML:
		c.breaker.RecordAnomaly()
		c.log.Log("anomalous response for %q (status %d), anomalies=%d", keyword, resp.Status, c.breaker.Snapshot().AnomalyCount)
		return Envelope{}, ErrAnomalousResponse
	case KindMalformedShape:
		c.breaker.ReleaseTrial()
		c.log.Log("malformed envelope for %q (status %d)", keyword, resp.Status)
		return Envelope{}, ErrMalformedShape
	case KindSoftEmpty:
		c.breaker.ReleaseTrial()
		c.log.Log("non-OK status %d for %q, treating as empty", resp.Status, keyword)
		return Envelope{}, nil
	default:
		c.breaker.ReleaseTrial()
		select {
		case <-ctx.Done():
			return Envelope{}, fmt.Errorf("request was cancelled: %w", ctx.Err())
		default:
			return Envelope{}, fmt.Errorf("failed to execute request: %w", resp.Err)
		}
	}
}

func (c *SearchClient) do(ctx context.Context, rawQuery string) Response {
	endpoint := strings.TrimRight(c.opts.BaseURL, "/") + c.opts.SearchPath + "?" + rawQuery

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Classify(0, nil, fmt.Errorf("failed to create request: %w", err))
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return Classify(0, nil, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Classify(resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err))
	}
	return Classify(resp.StatusCode, body, nil)
}

func (c *SearchClient) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	if c.opts.Referer != "" {
		req.Header.Set("Referer", c.opts.Referer)
	}
	if c.opts.Origin != "" {
		req.Header.Set("Origin", c.opts.Origin)
	}
}
