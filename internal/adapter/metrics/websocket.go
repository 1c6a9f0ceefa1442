package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebSocketMetrics holds Prometheus metrics for the realtime hub.
type WebSocketMetrics struct {
	ActiveConnections prometheus.Gauge
	ActiveTopics      prometheus.Gauge
	FramesReceived    *prometheus.CounterVec
	ProtocolErrors    *prometheus.CounterVec
	FramesSent        *prometheus.CounterVec
	FramesDropped     *prometheus.CounterVec
	FanoutRecipients  *prometheus.HistogramVec
	ProbesSent        prometheus.Counter
	Disconnects       *prometheus.CounterVec
}

// NewWebSocketMetrics creates and registers hub metrics on the given registry.
func NewWebSocketMetrics(reg prometheus.Registerer) *WebSocketMetrics {
	m := &WebSocketMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_connections",
			Help:      "Number of registered WebSocket connections.",
		}),
		ActiveTopics: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_topics",
			Help:      "Number of matches with at least one subscriber.",
		}),
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "frames_received_total",
			Help:      "Inbound frames by declared type.",
		}, []string{"type"}),
		ProtocolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "protocol_errors_total",
			Help:      "Error frames sent to clients by code.",
		}, []string{"code"}),
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "frames_sent_total",
			Help:      "Outbound frames handed to connection writers by frame type.",
		}, []string{"type"}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "frames_dropped_total",
			Help:      "Outbound frames skipped because the connection was not writable.",
		}, []string{"type"}),
		FanoutRecipients: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "fanout_recipients",
			Help:      "Number of connections in each publish snapshot.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"type"}),
		ProbesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "probes_sent_total",
			Help:      "Liveness pings enqueued.",
		}),
		Disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "disconnects_total",
			Help:      "Terminated connections by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.ActiveConnections,
		m.ActiveTopics,
		m.FramesReceived,
		m.ProtocolErrors,
		m.FramesSent,
		m.FramesDropped,
		m.FanoutRecipients,
		m.ProbesSent,
		m.Disconnects,
	)
	return m
}
