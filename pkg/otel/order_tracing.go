package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Span names
	SpanSubmitOrder = "submit_order"
	SpanMatchOrder  = "match_order"
	SpanReplayStep  = "replay_step"
	SpanSendToSink  = "send_to_sink"

	// Attribute keys
	AttributeOrderID           = "order.id"
	AttributeOrderSide         = "order.side"
	AttributeOrderPrice        = "order.price"
	AttributeOrderQuantity     = "order.quantity"
	AttributeExecutedQuantity  = "order.executed_quantity"
	AttributeRemainingQuantity = "order.remaining_quantity"
	AttributeFillCount         = "fill.count"
	AttributeEventKind         = "event.kind"
)

// StartOrderSpan starts a new span for a matching-engine or replay
// operation, choosing the tracer by span name.
func StartOrderSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	var tracer trace.Tracer

	switch name {
	case SpanReplayStep:
		tracer = GetReplayTracer()
	default:
		tracer = GetMatchingEngineTracer()
	}

	if tracer == nil {
		return ctx, nil
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// AddAttributes adds attributes to a span. A nil span (tracing
// disabled) is a no-op.
func AddAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.SetAttributes(attrs...)
}
