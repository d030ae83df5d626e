package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StartTourSpan starts the parent span covering one execution of a tour.
func StartTourSpan(ctx context.Context, tracer trace.Tracer, tourName string, workerID, iteration int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "tour "+tourName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("tourbus.tour", tourName),
			attribute.Int("tourbus.worker", workerID),
			attribute.Int("tourbus.iteration", iteration),
		),
	)
}

// StartRequestSpan starts a client span for one tour step.
func StartRequestSpan(ctx context.Context, tracer trace.Tracer, endpoint, test string) (context.Context, trace.Span) {
	spanName := "request"
	if endpoint != "" {
		spanName = endpoint
	}
	ctx, span := tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	if endpoint != "" {
		span.SetAttributes(attribute.String("tourbus.endpoint", endpoint))
	}
	if test != "" {
		span.SetAttributes(attribute.String("tourbus.test", test))
	}
	return ctx, span
}

// StatusAttr records an HTTP response status on a span.
func StatusAttr(code int) attribute.KeyValue {
	return attribute.Int("http.response.status_code", code)
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}
