package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gochat",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gochat",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	GRPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gochat",
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "Total number of gRPC calls",
		},
		[]string{"method", "code"},
	)

	MessagesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gochat",
			Subsystem: "chat",
			Name:      "messages_created_total",
			Help:      "Messages persisted, by kind",
		},
		[]string{"kind"},
	)

	MessagesDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gochat",
			Subsystem: "chat",
			Name:      "messages_deleted_total",
			Help:      "Message deletions, by delete type",
		},
		[]string{"type"},
	)

	ReactionsToggled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gochat",
			Subsystem: "chat",
			Name:      "reactions_toggled_total",
			Help:      "Reaction toggles, by result",
		},
		[]string{"result"},
	)

	RequestsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gochat",
			Subsystem: "chat",
			Name:      "requests_accepted_total",
			Help:      "Chat requests accepted",
		},
	)

	ConversationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gochat",
			Subsystem: "chat",
			Name:      "conversations_created_total",
			Help:      "Conversations created, by kind",
		},
		[]string{"kind"},
	)

	DecryptFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gochat",
			Subsystem: "crypto",
			Name:      "decrypt_failures_total",
			Help:      "Stored message tokens that could not be decrypted",
		},
	)

	NotificationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gochat",
			Subsystem: "notifications",
			Name:      "dropped_total",
			Help:      "Notification events dropped because the queue was full",
		},
	)
)
