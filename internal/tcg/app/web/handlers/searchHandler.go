package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tcgsearch_api/internal/tcg/business/merge"
	"tcgsearch_api/internal/tcg/models"
	"tcgsearch_api/pkg/logger"
)

type Searcher interface {
	Search(ctx context.Context, query string, req models.PageRequest) (merge.Result, error)
}

type SearchHandler struct {
	searcher Searcher
	timeout  time.Duration
	log      logger.Logger
}

func NewSearchHandler(searcher Searcher, timeout time.Duration, log logger.Logger) *SearchHandler {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	return &SearchHandler{searcher: searcher, timeout: timeout, log: log.WithPrefix("[SearchHandler]")}
}

// ServeHTTP handles GET /api/search?q=&page=&limit=.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	params := r.URL.Query()
	query := strings.TrimSpace(params.Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	page, err := intParam(params.Get("page"), 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	limit, err := intParam(params.Get("limit"), merge.DefaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.searcher.Search(ctx, query, models.PageRequest{Page: page, PageSize: limit})
	if err != nil {
		if errors.Is(err, merge.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Log("search %q failed: %v", query, err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if result.Items == nil {
		result.Items = []models.Listing{}
	}

	writeJSON(w, http.StatusOK, result)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("invalid")
	}
	return n, nil
}
