package job

import "github.com/prometheus/client_golang/prometheus"

var (
	jobRunCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "online_judge_duel",
			Subsystem: "cronjob",
			Name:      "runs_total",
			Help:      "Total number of cron job runs",
		},
		[]string{"job", "result"},
	)

	jobRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "online_judge_duel",
			Subsystem: "cronjob",
			Name:      "run_duration_seconds",
			Help:      "Duration of cron job runs",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)

func init() {
	prometheus.MustRegister(jobRunCounter, jobRunDuration)
}
