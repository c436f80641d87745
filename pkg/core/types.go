package core

import (
	"github.com/nikolaydubina/fpdecimal"
)

// Fill is emitted atomically when matching reduces a maker's
// RemainingSize. Price is always the maker's resting price: price
// improvement flows to the taker, never the other way around.
type Fill struct {
	TakerOrderID string
	MakerOrderID string
	Price        fpdecimal.Decimal
	Size         fpdecimal.Decimal
	Timestamp    int64
	TakerOrigin  Origin
	MakerOrigin  Origin
}

// PriceLevelSnapshot is an immutable read of one price level, as
// returned by depth queries: the aggregate resting size across every
// order at Price, in FIFO arrival order irrelevant to the caller.
type PriceLevelSnapshot struct {
	Price         fpdecimal.Decimal
	AggregateSize fpdecimal.Decimal
}
