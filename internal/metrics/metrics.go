// Package metrics exposes Prometheus collectors for the crawler.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchAttemptsTotal    *prometheus.CounterVec
	fetchRetriesTotal     prometheus.Counter
	fetchDurationSeconds  prometheus.Histogram
	pagesTotal            *prometheus.CounterVec
	booksTotal            *prometheus.CounterVec
	rateLimitDelaySeconds prometheus.Histogram
	activeWorkers         prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookcrawler_fetch_attempts_total",
				Help: "HTTP requests issued, labeled by terminal outcome.",
			},
			[]string{"outcome"},
		)

		fetchRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "bookcrawler_fetch_retries_total",
				Help: "Retry attempts triggered by transient fetch failures.",
			},
		)

		fetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bookcrawler_fetch_duration_seconds",
				Help:    "Wall time per fetch including retries and backoff.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
		)

		pagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookcrawler_pages_total",
				Help: "Pages handled, labeled by result (fetched or skipped).",
			},
			[]string{"result"},
		)

		booksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookcrawler_books_total",
				Help: "Books finished, labeled by final status.",
			},
			[]string{"status"},
		)

		rateLimitDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bookcrawler_rate_limit_delay_seconds",
				Help:    "Time spent waiting on the politeness limiter.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "bookcrawler_active_workers",
				Help: "Workers currently crawling a book.",
			},
		)
	})
}

// CountFetch records one terminal fetch outcome and its duration.
func CountFetch(outcome string, dur time.Duration) {
	if fetchAttemptsTotal == nil {
		return
	}
	fetchAttemptsTotal.WithLabelValues(outcome).Inc()
	fetchDurationSeconds.Observe(dur.Seconds())
}

// CountRetry records one retry of a transient failure.
func CountRetry() {
	if fetchRetriesTotal == nil {
		return
	}
	fetchRetriesTotal.Inc()
}

// CountPage records a page handled, result is "fetched" or "skipped".
func CountPage(result string) {
	if pagesTotal == nil {
		return
	}
	pagesTotal.WithLabelValues(result).Inc()
}

// CountBook records a finished book by final status.
func CountBook(status string) {
	if booksTotal == nil {
		return
	}
	booksTotal.WithLabelValues(status).Inc()
}

// ObserveRateLimitDelay records time spent throttled.
func ObserveRateLimitDelay(dur time.Duration) {
	if rateLimitDelaySeconds == nil {
		return
	}
	rateLimitDelaySeconds.Observe(dur.Seconds())
}

// WorkerStarted and WorkerDone track the active worker gauge.
func WorkerStarted() {
	if activeWorkers == nil {
		return
	}
	activeWorkers.Inc()
}

// WorkerDone decrements the active worker gauge.
func WorkerDone() {
	if activeWorkers == nil {
		return
	}
	activeWorkers.Dec()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
