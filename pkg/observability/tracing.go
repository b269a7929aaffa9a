package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/rwhender/BayesicFitting/pkg/domain"
)

const tracerName = "bayesicfitting.nested"

// Tracer provides OpenTelemetry spans for sampling runs.
//
// Thread Safety: Safe for concurrent use.
type Tracer struct {
	tracer  trace.Tracer
	enabled bool
}

// NewTracer returns a tracer on tp, or on the global provider when tp is nil.
func NewTracer(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer(tracerName), enabled: true}
}

// NopTracer returns a tracer that records nothing.
func NopTracer() *Tracer {
	return &Tracer{tracer: noop.NewTracerProvider().Tracer(tracerName)}
}

// StartRun starts the span of a whole run.
func (t *Tracer) StartRun(ctx context.Context, runID string, ensemble, discard int) (context.Context, trace.Span) {
	if t == nil || !t.enabled {
		return ctx, noop.Span{}
	}
	return t.tracer.Start(ctx, "nested.sample",
		trace.WithAttributes(
			attribute.String("bayesic.run_id", runID),
			attribute.Int("bayesic.ensemble", ensemble),
			attribute.Int("bayesic.discard", discard),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndRun completes the run span.
func (t *Tracer) EndRun(span trace.Span, s *domain.Summary, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	if s != nil {
		span.SetAttributes(
			attribute.Int("bayesic.result.iterations", s.Iterations),
			attribute.Int("bayesic.result.samples", s.Samples),
			attribute.Float64("bayesic.result.log_z", s.LogZ),
			attribute.Float64("bayesic.result.information", s.Information),
			attribute.Int64("bayesic.result.logl_calls", s.LogLCalls),
		)
	}
	span.End()
}

// StartCheckpoint starts the span of a checkpoint save or restore.
func (t *Tracer) StartCheckpoint(ctx context.Context, iteration int, restore bool) (context.Context, trace.Span) {
	if t == nil || !t.enabled {
		return ctx, noop.Span{}
	}
	name := "nested.checkpoint.save"
	if restore {
		name = "nested.checkpoint.restore"
	}
	return t.tracer.Start(ctx, name, trace.WithAttributes(attribute.Int("bayesic.iteration", iteration)))
}

// End completes span, recording err.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
