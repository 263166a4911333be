package web

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	leaderboardRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "online_judge_duel",
			Subsystem: "leaderboard",
			Name:      "requests_total",
			Help:      "Leaderboard API requests total.",
		},
		[]string{"handler", "code"},
	)
	leaderboardDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "online_judge_duel",
			Subsystem: "leaderboard",
			Name:      "duration_seconds",
			Help:      "Leaderboard API duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"handler", "code"},
	)
)

func init() {
	prometheus.MustRegister(
		leaderboardRequestsTotal,
		leaderboardDurationSeconds,
	)
}

func observeLeaderboard(handler string, code int, start time.Time) {
	c := strconv.Itoa(code)
	leaderboardRequestsTotal.WithLabelValues(handler, c).Inc()
	leaderboardDurationSeconds.WithLabelValues(handler, c).Observe(time.Since(start).Seconds())
}
