package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments the server maintains.
type Metrics struct {
	JobsStarted  prometheus.Counter
	JobsFinished *prometheus.CounterVec
	Evaluations  prometheus.Counter
}

// NewMetrics registers the server metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		JobsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "firefly_jobs_started_total",
			Help: "Number of optimization jobs accepted.",
		}),
		JobsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "firefly_jobs_finished_total",
			Help: "Number of optimization jobs finished, by terminal state.",
		}, []string{"state"}),
		Evaluations: factory.NewCounter(prometheus.CounterOpts{
			Name: "firefly_objective_evaluations_total",
			Help: "Number of objective function evaluations performed.",
		}),
	}
}
