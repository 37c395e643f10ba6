package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/criyle/go-grader/worker"
)

const metricsNamespace = "go_grader"

var (
	metricsGradeCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "grade",
		Name:      "count",
		Help:      "Number of gradings",
	}, []string{"outcome"})

	metricsGradeScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "grade",
		Name:      "score",
		Help:      "Histogram of total scores",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})
)

func init() {
	prometheus.MustRegister(metricsGradeCount, metricsGradeScore)
}

func gradeObserve(rt worker.Response) {
	switch {
	case rt.Error != nil:
		metricsGradeCount.WithLabelValues("error").Inc()
	case rt.Summary != nil && rt.Summary.Perfect():
		metricsGradeCount.WithLabelValues("perfect").Inc()
	default:
		metricsGradeCount.WithLabelValues("partial").Inc()
	}
	if rt.Summary != nil {
		metricsGradeScore.Observe(rt.Summary.Total)
	}
}
