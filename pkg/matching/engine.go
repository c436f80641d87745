// Package matching implements the price-time priority matching engine:
// the single authority that mutates a Book Store's contents via matches.
package matching

import (
	"context"

	"github.com/nikolaydubina/fpdecimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/orderflow/matchingo/pkg/book"
	"github.com/orderflow/matchingo/pkg/core"
	otelx "github.com/orderflow/matchingo/pkg/otel"
)

// Engine is the Matching Engine. It owns no state of its own beyond
// instrumentation; the OrderBook it was constructed with is the sole
// mutable resource, matching §5's single-owner rule.
type Engine struct {
	book    *book.OrderBook
	metrics *otelx.OrderBookMetrics
	latency *latencyRecorder
}

// New constructs an Engine over an existing OrderBook.
func New(b *book.OrderBook) *Engine {
	return &Engine{
		book:    b,
		metrics: otelx.GetOrderBookMetrics(),
		latency: newLatencyRecorder(),
	}
}

// Book returns the underlying Book Store for read-only feature
// extraction. Callers must not mutate it directly; all mutation goes
// through Submit/Cancel.
func (e *Engine) Book() *book.OrderBook { return e.book }

// Cancel removes order_id from the book. See OrderBook.Cancel.
func (e *Engine) Cancel(orderID string) bool { return e.book.Cancel(orderID) }

// Submit matches order greedily against the opposite side under
// price-time priority, then rests any remainder (unless IOC). It
// returns the Fills produced, in matching order. On InvalidOrder the
// book is left unchanged and fills is nil.
func (e *Engine) Submit(ctx context.Context, order *core.Order) ([]core.Fill, error) {
	stop := e.startTiming()
	defer stop()

	ctx, span := otelx.StartOrderSpan(ctx, otelx.SpanSubmitOrder,
		attribute.String(otelx.AttributeOrderID, order.ID),
		attribute.String(otelx.AttributeOrderSide, order.Side.String()),
		attribute.String(otelx.AttributeOrderPrice, order.Price.String()),
		attribute.String(otelx.AttributeOrderQuantity, order.RemainingSize.String()),
	)
	if span != nil {
		defer span.End()
	}

	if err := e.validate(order); err != nil {
		e.metrics.RecordInvalid(ctx)
		return nil, err
	}

	oppSide := order.Side.Opposite()
	var fills []core.Fill

	for order.RemainingSize.GreaterThan(fpdecimal.Zero) {
		maker, ok := e.book.FrontMaker(oppSide)
		if !ok {
			break
		}
		if !crosses(order.Side, order.Price, maker.Price) {
			break
		}
		if maker.RemainingSize.LessThanOrEqual(fpdecimal.Zero) {
			// Defensive: must not occur under I5. Remove the corrupt
			// entry and continue rather than fault the whole submit.
			e.book.ReduceMaker(maker, fpdecimal.Zero)
			continue
		}

		matchSize := order.RemainingSize
		if maker.RemainingSize.LessThan(matchSize) {
			matchSize = maker.RemainingSize
		}

		fills = append(fills, core.Fill{
			TakerOrderID: order.ID,
			MakerOrderID: maker.ID,
			Price:        maker.Price,
			Size:         matchSize,
			Timestamp:    order.Timestamp,
			TakerOrigin:  order.Origin,
			MakerOrigin:  maker.Origin,
		})

		e.book.ReduceMaker(maker, matchSize)
		order.RemainingSize = order.RemainingSize.Sub(matchSize)
	}

	if order.RemainingSize.GreaterThan(fpdecimal.Zero) && !order.IOC {
		if err := e.book.InsertResting(order); err != nil {
			// Fills already emitted cannot be un-emitted: an insert
			// failure here means an internal precondition (the
			// duplicate/validity checks above) was violated between
			// validation and rest, which must never happen.
			return fills, core.NewEngineFault("insert_resting failed after matching: " + err.Error())
		}
		e.metrics.RecordRested(ctx, order.Side.String())
	}

	otelx.AddAttributes(span, attribute.Int(otelx.AttributeFillCount, len(fills)))
	e.metrics.RecordFills(ctx, order.Side.String(), int64(len(fills)))
	return fills, nil
}

func (e *Engine) validate(order *core.Order) error {
	if order.ID == "" {
		return core.NewInvalidOrderError(order.ID, core.ErrEmptyID)
	}
	if order.Price.LessThanOrEqual(fpdecimal.Zero) || order.RemainingSize.LessThanOrEqual(fpdecimal.Zero) {
		return core.NewInvalidOrderError(order.ID, core.ErrNonPositive)
	}
	if _, exists := e.book.Find(order.ID); exists {
		return core.NewInvalidOrderError(order.ID, core.ErrDuplicateID)
	}
	return nil
}

// crosses reports whether an aggressing order of side at price would
// match against a resting level at levelPrice.
func crosses(side core.Side, price, levelPrice fpdecimal.Decimal) bool {
	if side == core.Buy {
		return price.GreaterThanOrEqual(levelPrice)
	}
	return price.LessThanOrEqual(levelPrice)
}

// LatencySnapshot returns p50/p99/max Submit latency in nanoseconds.
func (e *Engine) LatencySnapshot() (p50, p99, max int64) {
	return e.latency.Snapshot()
}
