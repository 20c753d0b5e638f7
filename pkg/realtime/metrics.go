package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks live realtime sessions.
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "devroom",
			Subsystem: "realtime",
			Name:      "active_connections",
			Help:      "Number of currently connected realtime sessions",
		},
	)

	// AdmissionRejections counts handshake rejections by reason.
	AdmissionRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devroom",
			Subsystem: "realtime",
			Name:      "admission_rejections_total",
			Help:      "Total number of rejected connection attempts",
		},
		[]string{"reason"},
	)

	// MessagesReceived counts inbound chat events.
	MessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "devroom",
			Subsystem: "realtime",
			Name:      "messages_received_total",
			Help:      "Total number of chat messages received",
		},
	)

	// EventsSent counts client-bound events delivered to send queues.
	EventsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "devroom",
			Subsystem: "realtime",
			Name:      "events_sent_total",
			Help:      "Total number of events enqueued for delivery",
		},
	)

	// BackpressureDrops counts sessions dropped for slow consumption.
	BackpressureDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "devroom",
			Subsystem: "realtime",
			Name:      "backpressure_drops_total",
			Help:      "Total number of sessions dropped due to a full send queue",
		},
	)

	// AIInvocations counts pipeline invocations triggered by directives.
	AIInvocations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "devroom",
			Subsystem: "realtime",
			Name:      "ai_invocations_total",
			Help:      "Total number of AI directive invocations",
		},
	)

	// AIFailures counts pipeline failures by stage.
	AIFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devroom",
			Subsystem: "realtime",
			Name:      "ai_failures_total",
			Help:      "Total number of AI pipeline failures",
		},
		[]string{"stage"},
	)
)
