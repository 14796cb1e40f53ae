package module

import (
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/GoCodeAlone/workflow-plugin-contentstudio"

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(instrumentationName)
}

// newInstrumentedTransport wraps base so every outbound API call produces a
// client span and carries the caller's trace context.
func newInstrumentedTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return otelhttp.NewTransport(base,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "contentstudio " + r.Method + " " + r.URL.Path
		}),
	)
}

// startItemSpan opens the span covering one node item.
func startItemSpan(ctx context.Context, executionID, resource, operation string, index int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "contentstudio."+resource+"."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("contentstudio.execution_id", executionID),
			attribute.String("contentstudio.resource", resource),
			attribute.String("contentstudio.operation", operation),
			attribute.Int("contentstudio.item", index),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// TracedStep wraps a PipelineStep with a span per execution.
type TracedStep struct {
	step PipelineStep
}

// NewTracedStep wraps step with span instrumentation.
func NewTracedStep(step PipelineStep) *TracedStep {
	return &TracedStep{step: step}
}

func (s *TracedStep) Name() string { return s.step.Name() }

func (s *TracedStep) Execute(ctx context.Context, pc *PipelineContext) (*StepResult, error) {
	ctx, span := tracer().Start(ctx, "pipeline.step."+s.step.Name(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("pipeline.step.name", s.step.Name())),
	)
	result, err := s.step.Execute(ctx, pc)
	endSpan(span, err)
	return result, err
}
