package web

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	submitDuelChallengeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "online_judge_duel",
			Subsystem: "submission",
			Name:      "submit_duel_challenge_requests_total",
			Help:      "SubmitDuelChallenge requests total.",
		},
		[]string{"code", "language"},
	)
	submitDuelChallengeDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "online_judge_duel",
			Subsystem: "submission",
			Name:      "submit_duel_challenge_duration_seconds",
			Help:      "SubmitDuelChallenge duration in seconds, including judging.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"code", "language"},
	)
	submissionVerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "online_judge_duel",
			Subsystem: "submission",
			Name:      "verdicts_total",
			Help:      "Recorded submissions by verdict.",
		},
		[]string{"status"},
	)
	runCodeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "online_judge_duel",
			Subsystem: "submission",
			Name:      "run_code_requests_total",
			Help:      "RunCode requests total.",
		},
		[]string{"code", "language"},
	)
)

func init() {
	prometheus.MustRegister(
		submitDuelChallengeRequestsTotal,
		submitDuelChallengeDurationSeconds,
		submissionVerdictsTotal,
		runCodeRequestsTotal,
	)
}

func observeSubmit(language string, code int, start time.Time) {
	c := strconv.Itoa(code)
	submitDuelChallengeRequestsTotal.WithLabelValues(c, language).Inc()
	submitDuelChallengeDurationSeconds.WithLabelValues(c, language).Observe(time.Since(start).Seconds())
}
