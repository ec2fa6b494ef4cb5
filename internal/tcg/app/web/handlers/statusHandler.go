package handlers

import (
	"net/http"

	"tcgsearch_api/internal/tcg/pkg/breaker"
	"tcgsearch_api/metrics"
)

type BreakerView interface {
	Snapshot() breaker.State
	IsOpen() bool
}

type StatusResponse struct {
	Open    bool                          `json:"open"`
	Breaker breaker.State                 `json:"breaker"`
	Search  metrics.SearchMetricsSnapshot `json:"search"`
}

type StatusHandler struct {
	breaker BreakerView
	stats   *metrics.SearchMetrics
}

func NewStatusHandler(b BreakerView, stats *metrics.SearchMetrics) *StatusHandler {
	if stats == nil {
		stats = &metrics.SearchMetrics{}
	}
	return &StatusHandler{breaker: b, stats: stats}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Open:    h.breaker.IsOpen(),
		Breaker: h.breaker.Snapshot(),
		Search:  h.stats.Snapshot(),
	})
}
