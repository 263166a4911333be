package web

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	duelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "online_judge_duel",
			Subsystem: "duel",
			Name:      "requests_total",
			Help:      "Duel API requests total.",
		},
		[]string{"handler", "code"},
	)
	duelDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "online_judge_duel",
			Subsystem: "duel",
			Name:      "duration_seconds",
			Help:      "Duel API duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"handler", "code"},
	)
)

func init() {
	prometheus.MustRegister(
		duelRequestsTotal,
		duelDurationSeconds,
	)
}

func observeDuel(handler string, code int, start time.Time) {
	c := strconv.Itoa(code)
	duelRequestsTotal.WithLabelValues(handler, c).Inc()
	duelDurationSeconds.WithLabelValues(handler, c).Observe(time.Since(start).Seconds())
}
