// Package metrics exposes the engine's Prometheus collectors. Collectors
// are registered on the default registry; the server mounts promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsCreated counts notifications added to the store, by category.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm_engine",
		Name:      "notifications_created_total",
		Help:      "Notifications added to the store.",
	}, []string{"category"})

	// EventsIngested counts domain events accepted by the recorder, by type.
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm_engine",
		Name:      "events_ingested_total",
		Help:      "CRM domain events ingested.",
	}, []string{"event_type"})

	// EscalationStepsFired counts escalation steps fired, by rule.
	EscalationStepsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm_engine",
		Name:      "escalation_steps_fired_total",
		Help:      "Escalation steps fired by the scheduler.",
	}, []string{"rule"})

	// EscalationTickDuration observes how long each scheduler tick takes.
	EscalationTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "crm_engine",
		Name:      "escalation_tick_duration_seconds",
		Help:      "Duration of escalation scheduler ticks.",
		Buckets:   prometheus.DefBuckets,
	})

	// DeliveriesAttempted counts delivery attempts, by channel.
	DeliveriesAttempted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm_engine",
		Name:      "deliveries_attempted_total",
		Help:      "Delivery attempts handed to a channel sender.",
	}, []string{"channel"})

	// DeliveryFailures counts delivery attempts that reported an error.
	DeliveryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm_engine",
		Name:      "delivery_failures_total",
		Help:      "Delivery attempts that failed.",
	}, []string{"channel"})

	// DeliveriesDeferred counts deliveries deferred by quiet hours or batching.
	DeliveriesDeferred = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crm_engine",
		Name:      "deliveries_deferred_total",
		Help:      "Deliveries deferred by quiet hours or frequency batching.",
	})

	// FeedClients gauges currently connected websocket feed clients.
	FeedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "crm_engine",
		Name:      "feed_clients",
		Help:      "Connected websocket feed clients.",
	})
)
