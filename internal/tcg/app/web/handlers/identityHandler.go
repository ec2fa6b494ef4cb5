package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"tcgsearch_api/internal/tcg/models"
	"tcgsearch_api/internal/tcg/pkg/clients"
)

const maxIdentityIDs = 100

type IdentityFetcher interface {
	FetchByIdentity(ctx context.Context, ids []string, hints []string) clients.IdentityResult
}

type IdentityRequest struct {
	IDs   []string `json:"ids"`
	Hints []string `json:"hints"`
}

type IdentityHandler struct {
	fetcher IdentityFetcher
}

func NewIdentityHandler(fetcher IdentityFetcher) *IdentityHandler {
	return &IdentityHandler{fetcher: fetcher}
}

// ServeHTTP handles POST /api/identity. Per-id failures are reported in errors with status 200.
func (h *IdentityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req IdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to decode request body")
		return
	}

	ids := make([]string, 0, len(req.IDs))
	hints := make([]string, 0, len(req.IDs))
	for i, id := range req.IDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		ids = append(ids, id)
		hint := ""
		if i < len(req.Hints) {
			hint = req.Hints[i]
		}
		hints = append(hints, hint)
	}
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "ids must contain at least one product id")
		return
	}
	if len(ids) > maxIdentityIDs {
		writeError(w, http.StatusBadRequest, "too many ids")
		return
	}

	result := h.fetcher.FetchByIdentity(r.Context(), ids, hints)
	if result.Items == nil {
		result.Items = []models.Listing{}
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}
	writeJSON(w, http.StatusOK, result)
}
