package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)
	upstreamResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_responses_total",
			Help: "Upstream search responses by classification.",
		},
		[]string{"outcome"},
	)
	upstreamBreakerOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "upstream_breaker_open",
			Help: "1 while upstream calls are suspended by the circuit breaker.",
		},
	)
	priceSyncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_price_sync_total",
			Help: "Local inventory price synchronisations by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(upstreamResponsesTotal)
	prometheus.MustRegister(upstreamBreakerOpen)
	prometheus.MustRegister(priceSyncTotal)
}

// RecordRequest observes one served HTTP request.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

func RecordUpstream(outcome string) {
	upstreamResponsesTotal.WithLabelValues(outcome).Inc()
}

func SetBreakerOpen(open bool) {
	if open {
		upstreamBreakerOpen.Set(1)
		return
	}
	upstreamBreakerOpen.Set(0)
}

// RecordPriceSync adds n synced rows, or one failure when err is set.
func RecordPriceSync(n int, err error) {
	if err != nil {
		priceSyncTotal.WithLabelValues("error").Inc()
		return
	}
	priceSyncTotal.WithLabelValues("updated").Add(float64(n))
}

// classifyStatus buckets a status code into its class label.
func classifyStatus(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "2xx"
	} else if statusCode >= 300 && statusCode < 400 {
		return "3xx"
	} else if statusCode >= 400 && statusCode < 500 {
		return "4xx"
	} else if statusCode >= 500 && statusCode < 600 {
		return "5xx"
	}
	return "unknown"
}

// MetricsHandler exposes the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
