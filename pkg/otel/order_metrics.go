package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/orderflow/matchingo/pkg/otel"

var (
	orderBookMetrics *OrderBookMetrics
	meter            = otel.GetMeterProvider().Meter(instrumentationName)
)

// OrderBookMetrics holds the counters exported for matching-engine
// activity: fills produced, orders that rested a nonzero remainder
// (whether or not they filled in part first), and Submit calls rejected
// as InvalidOrder.
type OrderBookMetrics struct {
	fillsTotal   metric.Int64Counter
	restedTotal  metric.Int64Counter
	invalidTotal metric.Int64Counter
}

// GetOrderBookMetrics returns the OrderBookMetrics singleton.
func GetOrderBookMetrics() *OrderBookMetrics {
	if orderBookMetrics != nil {
		return orderBookMetrics
	}

	fillsTotal, err := meter.Int64Counter(
		"matching.fills.total",
		metric.WithDescription("Total number of fills produced by Submit"),
		metric.WithUnit("{fill}"),
	)
	if err != nil {
		return &OrderBookMetrics{}
	}
	restedTotal, err := meter.Int64Counter(
		"matching.rested.total",
		metric.WithDescription("Total number of orders that rested with a nonzero remainder"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return &OrderBookMetrics{}
	}
	invalidTotal, err := meter.Int64Counter(
		"matching.invalid.total",
		metric.WithDescription("Total number of Submit calls rejected as InvalidOrder"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return &OrderBookMetrics{}
	}

	orderBookMetrics = &OrderBookMetrics{
		fillsTotal:   fillsTotal,
		restedTotal:  restedTotal,
		invalidTotal: invalidTotal,
	}
	return orderBookMetrics
}

// RecordFills increments the fills counter by count for side.
func (m *OrderBookMetrics) RecordFills(ctx context.Context, side string, count int64) {
	if m.fillsTotal == nil || count == 0 {
		return
	}
	m.fillsTotal.Add(ctx, count, metric.WithAttributes(attribute.String(AttributeOrderSide, side)))
}

// RecordRested increments the rested-order counter for side.
func (m *OrderBookMetrics) RecordRested(ctx context.Context, side string) {
	if m.restedTotal == nil {
		return
	}
	m.restedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(AttributeOrderSide, side)))
}

// RecordInvalid increments the invalid-order counter.
func (m *OrderBookMetrics) RecordInvalid(ctx context.Context) {
	if m.invalidTotal == nil {
		return
	}
	m.invalidTotal.Add(ctx, 1)
}
