package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubscriptionRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orchard_history_subscription_retries_total",
		Help: "The total number of live history resubscribe attempts",
	})

	SubscriptionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orchard_history_subscription_failures_total",
		Help: "The total number of live history subscriptions that gave up after retrying",
	})

	SnapshotsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orchard_history_snapshots_total",
		Help: "The total number of history snapshots delivered",
	})

	ActiveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orchard_history_active_subscriptions",
		Help: "Number of history controllers currently holding a live subscription",
	})

	Deletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orchard_request_deletes_total",
		Help: "Request deletions by kind and outcome",
	}, []string{"kind", "status"})

	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orchard_analytics_exports_total",
		Help: "Analytics exports by format",
	}, []string{"format"})

	AnalyticsLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orchard_analytics_load_duration_seconds",
		Help:    "Duration of analytics one-shot fetches",
		Buckets: prometheus.DefBuckets,
	})
)
