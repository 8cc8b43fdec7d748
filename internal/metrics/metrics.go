package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertgate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alertgate_http_request_duration_seconds",
			Help:    "Histogram of response durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	AlertsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertgate_alerts_ingested_total",
			Help: "Number of alerts accepted for dispatch, by integration type",
		},
		[]string{"integration"},
	)

	RejectedRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertgate_rejected_requests_total",
			Help: "Number of ingestion requests refused, by rejection reason",
		},
		[]string{"reason"},
	)

	TasksEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertgate_tasks_enqueued_total",
			Help: "Number of tasks handed to the dispatch transport",
		},
		[]string{"task"},
	)

	TaskEnqueueFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertgate_task_enqueue_failures_total",
			Help: "Number of tasks the dispatch transport refused to accept",
		},
		[]string{"task"},
	)

	TaskDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertgate_task_deliveries_total",
			Help: "Number of task messages confirmed by the broker",
		},
		[]string{"task"},
	)

	TaskDeliveryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertgate_task_delivery_failures_total",
			Help: "Number of task messages the broker failed to accept",
		},
		[]string{"task"},
	)

	// Routing cache health
	CacheRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertgate_cache_refreshes_total",
			Help: "Number of routing cache refresh attempts, by result",
		},
		[]string{"result"},
	)

	CachedChannels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "alertgate_cached_channels",
			Help: "Number of channels in the current routing snapshot",
		},
	)
)

func Init() {
	prometheus.MustRegister(
		HTTPRequests,
		RequestDuration,
		AlertsIngested,
		RejectedRequests,
		TasksEnqueued,
		TaskEnqueueFailures,
		TaskDeliveries,
		TaskDeliveryFailures,
		CacheRefreshes,
		CachedChannels,
	)
}
