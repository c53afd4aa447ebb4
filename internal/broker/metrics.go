package broker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MikeSquared-Agency/taskmatch/internal/assignerr"
)

var (
	assignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskmatch",
		Name:      "assignments_total",
		Help:      "Auto-assignment attempts by outcome.",
	}, []string{"outcome"})

	assignmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "taskmatch",
		Name:      "assignment_duration_seconds",
		Help:      "Time spent in a single auto-assignment attempt.",
		Buckets:   prometheus.DefBuckets,
	})

	winningScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "taskmatch",
		Name:      "winning_score",
		Help:      "Score of the selected member.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	filterFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskmatch",
		Name:      "filter_fallbacks_total",
		Help:      "Soft filter stages that fell back to their input set.",
	}, []string{"stage"})

	scoringFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskmatch",
		Name:      "scoring_failures_total",
		Help:      "Candidates whose scoring failed and were given a score of 0.",
	})

	workloadConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskmatch",
		Name:      "workload_version_conflicts_total",
		Help:      "Member saves retried after a version conflict.",
	})
)

// recordOutcome counts a failed assignment under its error kind.
func recordOutcome(err error) {
	assignmentsTotal.WithLabelValues(outcomeLabel(err)).Inc()
}

func outcomeLabel(err error) string {
	if k := assignerr.KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}
