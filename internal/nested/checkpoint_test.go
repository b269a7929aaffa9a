package nested

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/rwhender/BayesicFitting/internal/adapters/memory"
	"github.com/rwhender/BayesicFitting/internal/restart"
	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/errdis"
	"github.com/rwhender/BayesicFitting/pkg/model"
	"github.com/rwhender/BayesicFitting/pkg/observability"
	"github.com/rwhender/BayesicFitting/pkg/prior"
	"github.com/rwhender/BayesicFitting/pkg/problem"
)

func TestSample_ResumeMatchesUninterrupted(t *testing.T) {
	base := Options{Ensemble: 20, Seed: 99, RunID: "resume"}
	whole := run(t, base)

	store := memory.New()
	p := linearProblem(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := base
	first.Restarter = restart.New(store, "resume", restart.WithEvery(50))
	first.Hooks = domain.LifecycleHooks{
		OnIteration: func(_ context.Context, e *domain.IterationEvent) {
			if e.Iteration == 120 {
				cancel()
			}
		},
	}
	s1, err := New(p, gauss(t, p, errdis.Options{Scale: 0.5}), first)
	require.NoError(t, err)
	require.ErrorIs(t, s1.Sample(ctx), context.Canceled)

	cp, err := store.Load(context.Background(), "resume")
	require.NoError(t, err)
	assert.Equal(t, 100, cp.Iteration)
	assert.Len(t, cp.Walkers, 21)
	assert.Len(t, cp.Samples, 100)

	var restored []int
	second := base
	second.Restarter = restart.New(store, "resume", restart.WithResume(true))
	second.Hooks = domain.LifecycleHooks{
		OnCheckpoint: func(_ context.Context, e *domain.CheckpointEvent) {
			if e.Restored {
				restored = append(restored, e.Iteration)
			}
		},
	}
	s2, err := New(p, gauss(t, p, errdis.Options{Scale: 0.5}), second)
	require.NoError(t, err)
	require.NoError(t, s2.Sample(context.Background()))

	assert.Equal(t, []int{100}, restored)
	assert.Equal(t, whole.Iteration(), s2.Iteration())
	assert.Equal(t, whole.LogZ(), s2.LogZ())
	assert.Equal(t, whole.Information(), s2.Information())
	assert.Equal(t, whole.Parameters(), s2.Parameters())
}

func TestSample_RestoreMismatch(t *testing.T) {
	ctx := context.Background()
	saved := run(t, Options{Ensemble: 20, RunID: "line"}).Checkpoint()

	sine := func(t *testing.T) problem.Problem {
		m := model.NewSine()
		u, err := prior.NewUniform(-5, 5)
		require.NoError(t, err)
		m.SetPriors(u)
		line := linearProblem(t, true)
		p, err := problem.NewClassic(m, line.XData(), line.YData())
		require.NoError(t, err)
		return p
	}
	badFitIndex := saved.Clone()
	badFitIndex.Walkers[3].FitIndex = []int{0, 2}
	badHyper := saved.Clone()
	badHyper.Samples[0].NHyper = 0

	tests := []struct {
		name    string
		cp      *domain.Checkpoint
		problem func(t *testing.T) problem.Problem
	}{
		{"ensemble", &domain.Checkpoint{RunID: "line", Ensemble: 7, Discard: 1}, func(t *testing.T) problem.Problem { return linearProblem(t, true) }},
		{"other model", saved, sine},
		{"fit index", badFitIndex, func(t *testing.T) problem.Problem { return linearProblem(t, true) }},
		{"hyperparameters", badHyper, func(t *testing.T) problem.Problem { return linearProblem(t, true) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			require.NoError(t, store.Save(ctx, tt.cp))

			p := tt.problem(t)
			s, err := New(p, gauss(t, p, errdis.Options{Scale: 0.5}), Options{
				Ensemble:  20,
				Restarter: restart.New(store, "line", restart.WithResume(true)),
			})
			require.NoError(t, err)
			var got error
			require.NotPanics(t, func() { got = s.Sample(ctx) })
			assert.ErrorIs(t, got, domain.ErrInvalidConfig)
		})
	}
}

func TestSample_Observability(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	rec := tracetest.NewSpanRecorder()
	tracer := observability.NewTracer(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))

	var finished *domain.Summary
	hooks := domain.Combine(metrics.Hooks(), domain.LifecycleHooks{
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) { finished = e.Summary },
	})
	s := run(t, Options{
		Ensemble:  10,
		RunID:     "obs",
		Hooks:     hooks,
		Tracer:    tracer,
		Restarter: restart.New(memory.New(), "obs", restart.WithEvery(40)),
	})

	require.NotNil(t, finished)
	assert.Same(t, s.Summary(), finished)
	assert.Equal(t, float64(s.Iteration()), testutil.ToFloat64(metrics.Iterations.WithLabelValues("obs")))
	assert.Equal(t, float64(s.Iteration()/40), testutil.ToFloat64(metrics.Checkpoints.WithLabelValues("obs", "saved")))

	var runs, saves int
	for _, span := range rec.Ended() {
		switch span.Name() {
		case "nested.sample":
			runs++
		case "nested.checkpoint.save":
			saves++
		}
	}
	assert.Equal(t, 1, runs)
	assert.Equal(t, s.Iteration()/40, saves)
}
