// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SweepsTotal counts sweep runs by kind and outcome.
	// Labels: sweep (due_schedules|lifecycle), status (ok|error)
	SweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postpilot_sweeps_total",
		Help: "Number of scheduler sweep runs",
	}, []string{"sweep", "status"})

	// PostsGeneratedTotal counts successfully created posts.
	PostsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postpilot_posts_generated_total",
		Help: "Number of posts created by the generator",
	})

	// GenerationFailuresTotal counts failed post generation attempts.
	// Labels: reason (oracle|asset_exhausted|conflict|other)
	GenerationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postpilot_generation_failures_total",
		Help: "Number of failed post generation attempts",
	}, []string{"reason"})

	// SchedulesDisabledTotal counts schedules that reached campaign end.
	SchedulesDisabledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postpilot_schedules_disabled_total",
		Help: "Number of campaign schedules disabled after passing end_date",
	})
)
