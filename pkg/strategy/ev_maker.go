package strategy

import (
	"github.com/nikolaydubina/fpdecimal"

	"github.com/orderflow/matchingo/pkg/core"
	"github.com/orderflow/matchingo/pkg/features"
)

// EVMakerInventorySkew chooses bid/ask distances from mid that maximize
// expected_edge = fill_prob(distance) * distance - |inventory| * skew_k,
// subject to MaxHalfSpread, then shifts the two distances in opposite
// directions by inventory * SkewK so a long position is pulled toward
// selling and a short position toward buying. Parameters:
// {max_half_spread, size_fn(inventory), skew_k, fill_prob_table}.
type EVMakerInventorySkew struct {
	MaxHalfSpread fpdecimal.Decimal
	SkewK         fpdecimal.Decimal
	FillProbTable FillProbabilityTable
	SizeFn        func(inventory fpdecimal.Decimal) fpdecimal.Decimal
	// NumPoints is the number of grid points evaluated when searching
	// for the EV-maximizing base distance in (0, MaxHalfSpread].
	NumPoints int
	// ContinuityClip bounds how far the bid and ask can move, each, from
	// one call to the next, damping call-to-call churn without changing
	// which distance maximizes expected edge.
	ContinuityClip fpdecimal.Decimal

	ids *IDGenerator

	hasPrev bool
	prevBid fpdecimal.Decimal
	prevAsk fpdecimal.Decimal
}

// NewEVMakerInventorySkew constructs an EVMakerInventorySkew strategy.
// continuityClip is the max per-call price move allowed on each side; pass
// fpdecimal.Zero to disable the clip.
func NewEVMakerInventorySkew(maxHalfSpread, skewK fpdecimal.Decimal, table FillProbabilityTable, sizeFn func(fpdecimal.Decimal) fpdecimal.Decimal, numPoints int, continuityClip fpdecimal.Decimal, idPrefix string) *EVMakerInventorySkew {
	if numPoints < 2 {
		numPoints = 10
	}
	return &EVMakerInventorySkew{
		MaxHalfSpread:  maxHalfSpread,
		SkewK:          skewK,
		FillProbTable:  table,
		SizeFn:         sizeFn,
		NumPoints:      numPoints,
		ContinuityClip: continuityClip,
		ids:            NewIDGenerator(idPrefix),
	}
}

// bestDistance grid-searches (0, MaxHalfSpread] for the distance
// maximizing fill_prob(d) * d.
func (s *EVMakerInventorySkew) bestDistance() fpdecimal.Decimal {
	step := s.MaxHalfSpread.Div(fpdecimal.FromFloat(float64(s.NumPoints)))
	best := s.MaxHalfSpread
	bestEV := -1.0
	for i := 1; i <= s.NumPoints; i++ {
		d := step.Mul(fpdecimal.FromFloat(float64(i)))
		ev := s.FillProbTable.Lookup(d) * d.Float64()
		if ev > bestEV {
			bestEV = ev
			best = d
		}
	}
	return best
}

func clampDistance(d, max fpdecimal.Decimal) fpdecimal.Decimal {
	if d.LessThanOrEqual(fpdecimal.Zero) {
		return fpdecimal.Zero
	}
	if d.GreaterThan(max) {
		return max
	}
	return d
}

// clampMove bounds price's move away from prev to at most clip in either
// direction, the continuity guard from inventory_skew.py's apply_skew: a
// quote may not jump further than clip between consecutive calls.
func clampMove(prev, price, clip fpdecimal.Decimal) fpdecimal.Decimal {
	if clip.LessThanOrEqual(fpdecimal.Zero) {
		return price
	}
	delta := price.Sub(prev)
	if delta.GreaterThan(clip) {
		delta = clip
	} else if delta.LessThan(fpdecimal.Zero.Sub(clip)) {
		delta = fpdecimal.Zero.Sub(clip)
	}
	return prev.Add(delta)
}

// OnStep implements Strategy.
func (s *EVMakerInventorySkew) OnStep(snap features.Snapshot, inventory fpdecimal.Decimal, open []OpenQuote, clockNanos int64) QuoteAction {
	action := QuoteAction{Cancels: make([]string, 0, len(open))}
	for _, q := range open {
		action.Cancels = append(action.Cancels, q.OrderID)
	}

	if !snap.HasMid {
		return action
	}

	base := s.bestDistance()
	skew := inventory.Mul(s.SkewK)

	bidDistance := clampDistance(base.Add(skew), s.MaxHalfSpread)
	askDistance := clampDistance(base.Sub(skew), s.MaxHalfSpread)

	size := s.Size(inventory)
	if size.LessThanOrEqual(fpdecimal.Zero) {
		return action
	}

	bidPrice := snap.Mid.Sub(bidDistance)
	askPrice := snap.Mid.Add(askDistance)

	if s.hasPrev {
		bidPrice = clampMove(s.prevBid, bidPrice, s.ContinuityClip)
		askPrice = clampMove(s.prevAsk, askPrice, s.ContinuityClip)
	}
	s.prevBid, s.prevAsk, s.hasPrev = bidPrice, askPrice, true

	if bid, err := core.NewOrder(s.ids.Next(core.Buy), core.Buy, bidPrice, size, core.Maker, false, clockNanos); err == nil {
		action.Inserts = append(action.Inserts, bid)
	}
	if ask, err := core.NewOrder(s.ids.Next(core.Sell), core.Sell, askPrice, size, core.Maker, false, clockNanos); err == nil {
		action.Inserts = append(action.Inserts, ask)
	}
	return action
}

// Size returns the configured order size for the current inventory,
// defaulting to a flat non-zero size when no SizeFn was supplied.
func (s *EVMakerInventorySkew) Size(inventory fpdecimal.Decimal) fpdecimal.Decimal {
	if s.SizeFn == nil {
		return fpdecimal.FromFloat(1.0)
	}
	return s.SizeFn(inventory)
}
