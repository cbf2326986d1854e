package metrics

import (
	"time"

	"github.com/langowen/exchange-rates/internal/entities"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec
	UpstreamRetriesTotal    prometheus.Counter

	CatalogRefreshTotal *prometheus.CounterVec
	CatalogCurrencies   prometheus.Gauge

	reg prometheus.Registerer
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_requests_total",
				Help: "Total number of calls to the rate provider",
			},
			[]string{"endpoint", "outcome"},
		),

		UpstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_request_duration_seconds",
				Help:    "Rate provider call duration in seconds, retries included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),

		UpstreamRetriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "upstream_retries_total",
				Help: "Total number of retried rate provider attempts",
			},
		),

		CatalogRefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_refresh_total",
				Help: "Total number of currency catalog refreshes",
			},
			[]string{"result"},
		),

		CatalogCurrencies: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_currencies",
				Help: "Number of currencies in the catalog",
			},
		),

		reg: reg,
	}
}

// ObserveUpstream is safe on a nil receiver so clients can run without
// metrics.
func (m *Metrics) ObserveUpstream(endpoint, outcome string, took time.Duration) {
	if m == nil {
		return
	}

	m.UpstreamRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(took.Seconds())
}

func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}

	m.UpstreamRetriesTotal.Inc()
}

func (m *Metrics) ObserveCatalogRefresh(err error, size int) {
	if m == nil {
		return
	}

	if err != nil {
		m.CatalogRefreshTotal.WithLabelValues("error").Inc()
		return
	}

	m.CatalogRefreshTotal.WithLabelValues("ok").Inc()
	m.CatalogCurrencies.Set(float64(size))
}

type CacheStatsFunc func() (entities.CacheStatistics, error)

// RegisterCache exports the cache counters, read at scrape time.
func (m *Metrics) RegisterCache(stats CacheStatsFunc) {
	if m == nil {
		return
	}

	read := func(pick func(entities.CacheStatistics) float64) func() float64 {
		return func() float64 {
			s, err := stats()
			if err != nil {
				return 0
			}
			return pick(s)
		}
	}

	factory := promauto.With(m.reg)

	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "rate_cache_hits_total",
		Help: "Total number of rate cache hits",
	}, read(func(s entities.CacheStatistics) float64 { return float64(s.Hits) }))

	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "rate_cache_misses_total",
		Help: "Total number of rate cache misses",
	}, read(func(s entities.CacheStatistics) float64 { return float64(s.Misses) }))

	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "rate_cache_evictions_total",
		Help: "Total number of rate cache evictions",
	}, read(func(s entities.CacheStatistics) float64 { return float64(s.Evictions) }))

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "rate_cache_entries",
		Help: "Number of entries in the rate cache",
	}, read(func(s entities.CacheStatistics) float64 { return float64(s.Size) }))
}
