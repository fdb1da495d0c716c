package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aryan0dhankhar/hobbyapi/internal/observability/metrics"
	"github.com/aryan0dhankhar/hobbyapi/internal/observability/tracing"
)

// startOp opens a span for a service operation. The returned func ends it and
// records the operation duration.
func startOp(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := tracing.Tracer().Start(ctx, op, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(err error) {
		result := "success"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.ObserveOperation(op, result, time.Since(start))
		span.End()
	}
}
