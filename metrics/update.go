package metrics

import "sync/atomic"

// SearchMetrics are process-lifetime counters exposed on the status endpoint.
type SearchMetrics struct {
	Searches        atomic.Int64
	UpstreamSkipped atomic.Int64
	PriceSynced     atomic.Int64
	SyncFailures    atomic.Int64
}

type SearchMetricsSnapshot struct {
	Searches        int64 `json:"searches"`
	UpstreamSkipped int64 `json:"upstreamSkipped"`
	PriceSynced     int64 `json:"priceSynced"`
	SyncFailures    int64 `json:"syncFailures"`
}

func (m *SearchMetrics) Snapshot() SearchMetricsSnapshot {
	return SearchMetricsSnapshot{
		Searches:        m.Searches.Load(),
		UpstreamSkipped: m.UpstreamSkipped.Load(),
		PriceSynced:     m.PriceSynced.Load(),
		SyncFailures:    m.SyncFailures.Load(),
	}
}
