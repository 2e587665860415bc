package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Business metrics
var (
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total number of chat messages sent",
		},
	)

	MentionsDispatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_mentions_dispatched_total",
			Help: "Total number of mention notifications dispatched",
		},
	)

	NotificationsDispatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of notifications persisted",
		},
	)

	OrderRequestsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "order_requests_created_total",
			Help: "Total number of order requests created",
		},
	)

	OrderRequestsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_requests_resolved_total",
			Help: "Total number of order requests resolved",
		},
		[]string{"status"},
	)

	CompleteRequestsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complete_requests_resolved_total",
			Help: "Total number of complete-order requests resolved",
		},
		[]string{"status"},
	)

	DeliveriesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_deliveries_published_total",
			Help: "Total number of live delivery events published",
		},
		[]string{"event"},
	)

	DeliveriesFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "live_deliveries_failed_total",
			Help: "Total number of live delivery events that failed to publish",
		},
	)
)

// HTTP metrics
var (
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
