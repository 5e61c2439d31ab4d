package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Ingest pipeline metrics
	QueueDepth        *prometheus.GaugeVec
	EnqueueDropsTotal *prometheus.CounterVec
	FlushesTotal      *prometheus.CounterVec
	FlushedItemsTotal *prometheus.CounterVec
	FlushDuration     *prometheus.HistogramVec

	// Hot cache metrics
	CacheWritesTotal *prometheus.CounterVec
	CacheErrorsTotal prometheus.Counter

	// Evaluator metrics
	EvaluatorTicksTotal  *prometheus.CounterVec
	RulesEvaluatedTotal  prometheus.Counter
	RulesSkippedTotal    prometheus.Counter
	AlertsTriggeredTotal prometheus.Counter
	AlertsRecoveredTotal prometheus.Counter

	// Gateway metrics
	ProxyRequestsTotal *prometheus.CounterVec
	ProxyErrorsTotal   *prometheus.CounterVec
}

// metrics is the global metrics instance
var metrics *Metrics

// InitMetrics initializes Prometheus metrics
func InitMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "moniflow"
	}

	metrics = &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		QueueDepth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "queue_depth",
				Help:      "Current number of items waiting in an ingest queue",
			},
			[]string{"queue"},
		),
		EnqueueDropsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "enqueue_drops_total",
				Help:      "Submissions rejected because the ingest queue was full",
			},
			[]string{"queue"},
		),
		FlushesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "flushes_total",
				Help:      "Batch flushes to the time-series store by outcome",
			},
			[]string{"queue", "status"},
		),
		FlushedItemsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "flushed_items_total",
				Help:      "Items successfully written to the time-series store",
			},
			[]string{"queue"},
		),
		FlushDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "flush_duration_seconds",
				Help:      "Time spent writing a batch to the time-series store",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"queue"},
		),

		CacheWritesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "writes_total",
				Help:      "Samples written to the hot cache",
			},
			[]string{"measurement"},
		),
		CacheErrorsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "errors_total",
				Help:      "Hot cache backend errors",
			},
		),

		EvaluatorTicksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "evaluator",
				Name:      "ticks_total",
				Help:      "Scheduled evaluator passes by task",
			},
			[]string{"task"},
		),
		RulesEvaluatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "evaluator",
				Name:      "rules_evaluated_total",
				Help:      "Rules checked against the hot cache",
			},
		),
		RulesSkippedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "evaluator",
				Name:      "rules_skipped_total",
				Help:      "Rules skipped because they failed validation",
			},
		),
		AlertsTriggeredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "evaluator",
				Name:      "alerts_triggered_total",
				Help:      "Triggered transitions written to history",
			},
		),
		AlertsRecoveredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "evaluator",
				Name:      "alerts_recovered_total",
				Help:      "Recovered transitions written to history",
			},
		),

		ProxyRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "proxy_requests_total",
				Help:      "Proxied requests by upstream service and status",
			},
			[]string{"service", "status"},
		),
		ProxyErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "proxy_errors_total",
				Help:      "Proxy failures by upstream service and kind",
			},
			[]string{"service", "kind"},
		),
	}

	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if metrics == nil {
		return InitMetrics("")
	}
	return metrics
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
