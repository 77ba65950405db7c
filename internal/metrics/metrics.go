package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	XPAwardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xp_awards_total",
			Help: "Total number of XP awards by reward tier",
		},
		[]string{"tier"},
	)
	XPAwardedPoints = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xp_awarded_points_total",
			Help: "Total XP points awarded by reward tier",
		},
		[]string{"tier"},
	)
	EngineJobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_job_runs_total",
			Help: "Total batch job executions by job and result",
		},
		[]string{"job", "result"},
	)
	NotificationDispatchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatch_failures_total",
			Help: "Total failed notification deliveries by channel",
		},
		[]string{"channel"},
	)
	ChallengeCompletions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "challenge_completions_total",
			Help: "Total challenges completed",
		},
	)
)

// Init registers the engine metrics. Call this from main.go
func Init() {
	prometheus.MustRegister(XPAwardsTotal)
	prometheus.MustRegister(XPAwardedPoints)
	prometheus.MustRegister(EngineJobRuns)
	prometheus.MustRegister(NotificationDispatchFailures)
	prometheus.MustRegister(ChallengeCompletions)
}
