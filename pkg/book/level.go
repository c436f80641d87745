// Package book implements the two-sided limit order book: O(log L)
// price-level access via a level heap per side, and O(1) order handle
// lookup via an index into each level's FIFO queue.
package book

import (
	"container/list"

	"github.com/nikolaydubina/fpdecimal"

	"github.com/orderflow/matchingo/pkg/core"
)

// priceLevel is an ordered queue of orders at one price. It preserves
// insertion order and supports O(1) push-back, pop-front, and removal
// by handle (a *list.Element).
type priceLevel struct {
	price fpdecimal.Decimal
	// orders holds *core.Order, front-to-back in arrival_seq order.
	orders *list.List
	// heapIndex is this level's current position in its side's heap,
	// maintained by heap.Interface.Swap so it can be removed directly
	// in O(log L) instead of being scanned for.
	heapIndex int
}

func newPriceLevel(price fpdecimal.Decimal) *priceLevel {
	return &priceLevel{price: price, orders: list.New()}
}

func (l *priceLevel) empty() bool { return l.orders.Len() == 0 }

func (l *priceLevel) aggregateSize() fpdecimal.Decimal {
	total := fpdecimal.Zero
	for e := l.orders.Front(); e != nil; e = e.Next() {
		total = total.Add(e.Value.(*core.Order).RemainingSize)
	}
	return total
}

// pushBack appends order to the tail of the level and returns the
// element handle used for O(1) removal.
func (l *priceLevel) pushBack(o *core.Order) *list.Element {
	return l.orders.PushBack(o)
}

// front returns the order at the head of the queue, or nil if empty.
func (l *priceLevel) front() *core.Order {
	if e := l.orders.Front(); e != nil {
		return e.Value.(*core.Order)
	}
	return nil
}

func (l *priceLevel) remove(e *list.Element) {
	l.orders.Remove(e)
}
