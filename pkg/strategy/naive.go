package strategy

import (
	"github.com/nikolaydubina/fpdecimal"

	"github.com/orderflow/matchingo/pkg/core"
	"github.com/orderflow/matchingo/pkg/features"
)

// NaiveFixedSpread quotes at mid ± spread/2 for a fixed size, canceling
// any previously open quote first. Parameters: {spread, size}.
type NaiveFixedSpread struct {
	// HalfSpread is half the configured spread, already expressed as a
	// price distance (ticks * tick size having been resolved by the
	// caller, per §9's fixed-scale price representation).
	HalfSpread fpdecimal.Decimal
	Size       fpdecimal.Decimal
	ids        *IDGenerator
}

// NewNaiveFixedSpread constructs a NaiveFixedSpread quoting halfSpread
// around mid at size, minting order ids under idPrefix.
func NewNaiveFixedSpread(halfSpread, size fpdecimal.Decimal, idPrefix string) *NaiveFixedSpread {
	return &NaiveFixedSpread{HalfSpread: halfSpread, Size: size, ids: NewIDGenerator(idPrefix)}
}

// OnStep implements Strategy.
func (s *NaiveFixedSpread) OnStep(snap features.Snapshot, inventory fpdecimal.Decimal, open []OpenQuote, clockNanos int64) QuoteAction {
	action := QuoteAction{Cancels: make([]string, 0, len(open))}
	for _, q := range open {
		action.Cancels = append(action.Cancels, q.OrderID)
	}

	if !snap.HasMid {
		return action
	}

	bidPrice := snap.Mid.Sub(s.HalfSpread)
	askPrice := snap.Mid.Add(s.HalfSpread)

	bid, err := core.NewOrder(s.ids.Next(core.Buy), core.Buy, bidPrice, s.Size, core.Maker, false, clockNanos)
	if err == nil {
		action.Inserts = append(action.Inserts, bid)
	}
	ask, err := core.NewOrder(s.ids.Next(core.Sell), core.Sell, askPrice, s.Size, core.Maker, false, clockNanos)
	if err == nil {
		action.Inserts = append(action.Inserts, ask)
	}
	return action
}
