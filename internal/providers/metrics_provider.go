package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"xpd/internal/models"
	"xpd/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncGrantsTotal(result string)
	AddXPAwarded(delta int64)
	IncLevelUps()
	IncStorageErrors()
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	SetMembersTotal(guildID string, count int)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	grantsTotal         *prometheus.CounterVec
	xpAwarded           prometheus.Counter
	levelUps            prometheus.Counter
	storageErrors       prometheus.Counter
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	membersTotal        *prometheus.GaugeVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncGrantsTotal(result string) {
	m.grantsTotal.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) AddXPAwarded(delta int64) {
	m.xpAwarded.Add(float64(delta))
}

func (m *MetricsProvider) IncLevelUps() {
	m.levelUps.Inc()
}

func (m *MetricsProvider) IncStorageErrors() {
	m.storageErrors.Inc()
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetMembersTotal(guildID string, count int) {
	m.membersTotal.WithLabelValues(guildID).Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, store models.LedgerStore, cooldowns *models.CooldownTracker) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "xpd_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xpd_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		grantsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "xpd_grants_total",
			Help: "Accrual outcomes by result",
		}, []string{"result"}),

		xpAwarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "xpd_xp_awarded_total",
			Help: "Total XP granted",
		}),

		levelUps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "xpd_levelups_total",
			Help: "Total level-up events",
		}),

		storageErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "xpd_storage_errors_total",
			Help: "Ledger store failures (lost grants included)",
		}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "xpd_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "xpd_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "xpd_persistence_duration_seconds",
			Help:    "Duration of persistence operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		membersTotal: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "xpd_members_total",
			Help: "Ledger members per guild",
		}, []string{"guild"}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "xpd_cooldown_entries",
		Help: "Live cooldown tracker entries",
	}, func() float64 {
		return float64(cooldowns.Len())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "xpd_guilds_total",
		Help: "Guilds present in the ledger",
	}, func() float64 {
		return float64(store.Stats().Guilds)
	})

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncGrantsTotal(_ string)                          {}
func (n *noopMetrics) AddXPAwarded(_ int64)                             {}
func (n *noopMetrics) IncLevelUps()                                     {}
func (n *noopMetrics) IncStorageErrors()                                {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) SetMembersTotal(_ string, _ int)                  {}
