package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rwhender/BayesicFitting/pkg/domain"
)

// Metrics holds the Prometheus collectors of sampling runs.
type Metrics struct {
	Iterations  *prometheus.CounterVec
	LogZ        *prometheus.GaugeVec
	Information *prometheus.GaugeVec
	LowLhood    *prometheus.GaugeVec
	Checkpoints *prometheus.CounterVec
	Runs        *prometheus.CounterVec
	Duration    prometheus.Histogram
	EngineMoves *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bayesic_iterations_total",
			Help: "Total number of nested-sampling iterations",
		}, []string{"run_id"}),
		LogZ: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bayesic_log_evidence",
			Help: "Current natural log of the evidence",
		}, []string{"run_id"}),
		Information: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bayesic_information_nats",
			Help: "Current information H",
		}, []string{"run_id"}),
		LowLhood: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bayesic_low_log_likelihood",
			Help: "Current likelihood floor",
		}, []string{"run_id"}),
		Checkpoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bayesic_checkpoints_total",
			Help: "Checkpoints saved or restored",
		}, []string{"run_id", "kind"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bayesic_runs_total",
			Help: "Sampling runs by phase",
		}, []string{"phase"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bayesic_run_duration_seconds",
			Help:    "Duration of finished sampling runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		EngineMoves: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bayesic_engine_moves",
			Help: "Cumulative engine moves of finished runs by outcome",
		}, []string{"run_id", "engine", "outcome"}),
	}
	for _, c := range []prometheus.Collector{m.Iterations, m.LogZ, m.Information, m.LowLhood, m.Checkpoints, m.Runs, m.Duration, m.EngineMoves} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(_ context.Context, e *domain.RunEvent) {
			m.Runs.WithLabelValues("started").Inc()
		},
		OnIteration: func(_ context.Context, e *domain.IterationEvent) {
			m.Iterations.WithLabelValues(e.RunID).Inc()
			m.LogZ.WithLabelValues(e.RunID).Set(e.LogZ)
			m.Information.WithLabelValues(e.RunID).Set(e.Information)
			m.LowLhood.WithLabelValues(e.RunID).Set(e.LowLhood)
		},
		OnCheckpoint: func(_ context.Context, e *domain.CheckpointEvent) {
			kind := "saved"
			if e.Restored {
				kind = "restored"
			}
			m.Checkpoints.WithLabelValues(e.RunID, kind).Inc()
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			m.Runs.WithLabelValues("finished").Inc()
			if e.Summary == nil {
				return
			}
			m.Duration.Observe(e.Summary.Duration.Seconds())
			for _, r := range e.Summary.Engines {
				m.EngineMoves.WithLabelValues(e.RunID, r.Name, "success").Set(float64(r.Success))
				m.EngineMoves.WithLabelValues(e.RunID, r.Name, "reject").Set(float64(r.Reject))
				m.EngineMoves.WithLabelValues(e.RunID, r.Name, "failed").Set(float64(r.Failed))
			}
		},
	}
}
