package web

import "github.com/prometheus/client_golang/prometheus"

var (
	wsConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "online_judge_duel",
			Subsystem: "realtime",
			Name:      "ws_connections_total",
			Help:      "WebSocket connections total.",
		},
		[]string{"feed", "reason"},
	)
	wsConnectionDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "online_judge_duel",
			Subsystem: "realtime",
			Name:      "ws_connection_duration_seconds",
			Help:      "WebSocket connection duration in seconds.",
			Buckets:   []float64{1, 10, 60, 300, 900, 1800, 3600},
		},
		[]string{"feed"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "online_judge_duel",
			Subsystem: "realtime",
			Name:      "ws_active_connections",
			Help:      "WebSocket active connections.",
		},
		[]string{"feed"},
	)
)

func init() {
	prometheus.MustRegister(
		wsConnectionsTotal,
		wsConnectionDurationSeconds,
		wsActiveConnections,
	)
}
