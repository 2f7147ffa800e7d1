package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Query metrics
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dockerdns_queries_total",
			Help: "Total number of DNS queries by query type and response code",
		},
		[]string{"qtype", "rcode"},
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dockerdns_query_duration_seconds",
			Help:    "Time taken to answer a DNS query in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	AnswersTruncated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dockerdns_answers_truncated_total",
			Help: "Total number of responses that dropped records to fit the UDP size limit",
		},
	)

	DroppedDatagrams = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dockerdns_dropped_datagrams_total",
			Help: "Total number of datagrams dropped without a response",
		},
	)

	// Cache metrics
	RefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dockerdns_refreshes_total",
			Help: "Total number of inventory refresh attempts by result",
		},
		[]string{"result"},
	)

	RefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dockerdns_refresh_duration_seconds",
			Help:    "Time taken for one inventory refresh in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CachedNames = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dockerdns_cached_names",
			Help: "Number of names in the current cache generation",
		},
	)

	CachedContainers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dockerdns_cached_containers",
			Help: "Number of containers in the current cache generation",
		},
	)
)

func init() {
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(AnswersTruncated)
	prometheus.MustRegister(DroppedDatagrams)
	prometheus.MustRegister(RefreshesTotal)
	prometheus.MustRegister(RefreshDuration)
	prometheus.MustRegister(CachedNames)
	prometheus.MustRegister(CachedContainers)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
