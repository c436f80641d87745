package core

import (
	"github.com/nikolaydubina/fpdecimal"
)

// Order is the unit of matching. Once resident in a PriceLevel it is
// mutated only by the Matching Engine (size reduction on a match) or by
// Cancel (removal); RemainingSize never goes negative and never rests at
// exactly zero (I5).
type Order struct {
	ID            string
	Side          Side
	Price         fpdecimal.Decimal
	RemainingSize fpdecimal.Decimal
	OriginalSize  fpdecimal.Decimal
	// ArrivalSeq is assigned by the Book Store at insertion and defines
	// intra-level time priority. It is book-scoped, monotonically
	// increasing, and never reused (§3).
	ArrivalSeq int64
	Origin     Origin
	// IOC marks the order immediate-or-cancel: any remainder left after
	// matching is discarded rather than rested.
	IOC bool
	// Timestamp is the logical time (nanoseconds) the order was
	// submitted, propagated onto any Fill it takes part in as taker.
	Timestamp int64
}

// NewOrder validates and constructs an Order. ArrivalSeq is left at zero
// and assigned by the Book Store on insertion.
func NewOrder(id string, side Side, price, size fpdecimal.Decimal, origin Origin, ioc bool, ts int64) (*Order, error) {
	if id == "" {
		return nil, newInvalidOrder(id, errEmptyID)
	}
	if price.LessThanOrEqual(fpdecimal.Zero) || size.LessThanOrEqual(fpdecimal.Zero) {
		return nil, newInvalidOrder(id, errNonPositive)
	}
	return &Order{
		ID:            id,
		Side:          side,
		Price:         price,
		RemainingSize: size,
		OriginalSize:  size,
		Origin:        origin,
		IOC:           ioc,
		Timestamp:     ts,
	}, nil
}

// Filled reports whether the order's remaining size has been fully
// consumed by matches.
func (o *Order) Filled() bool {
	return o.RemainingSize.LessThanOrEqual(fpdecimal.Zero)
}
