package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the Prometheus collectors for page fetches and caches.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	pageFetchesTotal     *prometheus.CounterVec
	pageFetchDuration    *prometheus.HistogramVec
	cacheLookupsTotal    *prometheus.CounterVec
	loadMoreIgnoredTotal prometheus.Counter
}

func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}

	m.pageFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photogallery_page_fetches_total",
			Help: "Total number of gallery page fetches",
		},
		[]string{"mode", "status"}, // status: success, error
	)
	m.pageFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photogallery_page_fetch_duration_seconds",
			Help:    "Time taken to fetch and normalize one gallery page",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"mode"},
	)
	m.cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photogallery_request_cache_lookups_total",
			Help: "Upstream request cache lookups",
		},
		[]string{"result"}, // result: hit, miss
	)
	m.loadMoreIgnoredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "photogallery_load_more_ignored_total",
			Help: "Load more requests dropped because a fetch was already in flight",
		},
	)

	for _, c := range []prometheus.Collector{
		m.pageFetchesTotal,
		m.pageFetchDuration,
		m.cacheLookupsTotal,
		m.loadMoreIgnoredTotal,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Register adds an extra collector to the registry.
func (m *Metrics) Register(c prometheus.Collector) error {
	if m == nil {
		return nil
	}
	return m.registry.Register(c)
}

func (m *Metrics) PageFetch(mode Mode, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.pageFetchesTotal.WithLabelValues(mode.String(), status).Inc()
	m.pageFetchDuration.WithLabelValues(mode.String()).Observe(elapsed.Seconds())
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookupsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) LoadMoreIgnored() {
	if m == nil {
		return
	}
	m.loadMoreIgnoredTotal.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
