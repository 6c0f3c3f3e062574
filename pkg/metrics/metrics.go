// Package metrics holds the Prometheus collectors of wordlens.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wordlens"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	menuClicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "menu",
			Name:      "clicks_total",
			Help:      "Context menu clicks by outcome.",
		},
		[]string{"status"},
	)
	translations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "translate",
			Name:      "lookups_total",
			Help:      "Translation lookups by result.",
		},
		[]string{"provider", "result"},
	)
	pageScans = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "highlight",
			Name:      "scans_total",
			Help:      "Highlight passes over a page.",
		},
		[]string{"kind"},
	)
	pageMatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "highlight",
			Name:      "matches_total",
			Help:      "Word occurrences wrapped in highlight spans.",
		},
		[]string{"kind"},
	)
)

// Scan kinds.
const (
	ScanLoad   = "load"
	ScanUpdate = "update"
	ScanIngest = "ingest"
)

// Translation results.
const (
	TranslationOK      = "ok"
	TranslationMissing = "missing"
	TranslationError   = "error"
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, menuClicks, translations, pageScans, pageMatches)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordMenuClick(status string) {
	RegisterMetrics()
	menuClicks.WithLabelValues(status).Inc()
}

func RecordTranslation(provider, result string) {
	RegisterMetrics()
	translations.WithLabelValues(provider, result).Inc()
}

func RecordScan(kind string, matches int) {
	RegisterMetrics()
	pageScans.WithLabelValues(kind).Inc()
	if matches > 0 {
		pageMatches.WithLabelValues(kind).Add(float64(matches))
	}
}
