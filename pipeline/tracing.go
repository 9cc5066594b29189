package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/scotline/pkg/meta"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingStage wraps the rest of the chain in an OpenTelemetry span named
// after the request type and records errors on the span.
type TracingStage[I Input, R Result] struct {
	tracer   trace.Tracer
	spanName string
	next     Handler[I, R]
}

// NewTracingStage returns a WrapFunc that applies OpenTelemetry tracing.
func NewTracingStage[I Input, R Result](reqName string) WrapFunc[I, R] {
	return func(next Handler[I, R]) Handler[I, R] {
		return &TracingStage[I, R]{
			tracer:   otel.Tracer("pipeline"),
			spanName: shortName(reqName),
			next:     next,
		}
	}
}

func (t *TracingStage[I, R]) Execute(ctx context.Context, input I) (R, error) {
	ctx, span := t.tracer.Start(ctx, t.spanName)
	defer span.End()

	result, err := t.next.Execute(ctx, input)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return result, err
}

// shortName keeps only the last dotted segment of a request name for span
// readability.
func shortName(reqName string) string {
	parts := strings.Split(reqName, ".")
	if len(parts) > 1 {
		return parts[len(parts)-1]
	}
	return reqName
}

// MetaInjectStage seeds request metadata (trace id, service name and version)
// into the context for downstream stages, the handler, and the audit stamper.
type MetaInjectStage[I Input, R Result] struct {
	serviceName    string
	serviceVersion string
	next           Handler[I, R]
}

// NewMetaInjectStage returns a WrapFunc that injects request metadata.
func NewMetaInjectStage[I Input, R Result](serviceName, serviceVersion string) WrapFunc[I, R] {
	return func(next Handler[I, R]) Handler[I, R] {
		return &MetaInjectStage[I, R]{serviceName: serviceName, serviceVersion: serviceVersion, next: next}
	}
}

func (m *MetaInjectStage[I, R]) Execute(ctx context.Context, input I) (R, error) {
	metadata := map[meta.ContextKey]string{
		meta.TraceID:        getTraceID(ctx),
		meta.ServiceName:    m.serviceName,
		meta.ServiceVersion: m.serviceVersion,
	}

	// add meta to context for downstream chain
	ctx = meta.InjectMetaToContext(ctx, metadata)

	return m.next.Execute(ctx, input)
}

// getTraceID extracts the trace ID from the current span in the context.
// If no trace ID is available, it generates a new UUID to use as a trace ID.
func getTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	traceID := span.SpanContext().TraceID()

	if traceID.IsValid() {
		return traceID.String()
	}

	return fmt.Sprintf("man-%s", uuid.New().String())
}
