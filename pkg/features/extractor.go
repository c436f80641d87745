// Package features derives microprice, top-of-book imbalance, and a
// short-window mid-price volatility from a Book Store's observable
// state, as pure functions plus a bounded sample history.
package features

import (
	"math"

	"github.com/nikolaydubina/fpdecimal"

	"github.com/orderflow/matchingo/pkg/book"
	"github.com/orderflow/matchingo/pkg/core"
)

// DefaultRingCapacity bounds the mid-price sample history kept by an
// Extractor when the caller does not need a larger volatility window.
const DefaultRingCapacity = 4096

// Snapshot is an immutable read of the features computed at one replay
// step, passed to a Strategy's OnStep.
type Snapshot struct {
	Microprice    fpdecimal.Decimal
	HasMicroprice bool
	Imbalance1    fpdecimal.Decimal
	Imbalance2    fpdecimal.Decimal
	Imbalance5    fpdecimal.Decimal
	Volatility    float64
	Mid           fpdecimal.Decimal
	HasMid        bool
}

// Extractor computes features from a Book Store plus a ring of
// previously observed mid-prices.
type Extractor struct {
	book *book.OrderBook
	ring *midPriceRing
}

// New constructs an Extractor over book with the given ring capacity.
func New(b *book.OrderBook, ringCapacity int) *Extractor {
	if ringCapacity <= 0 {
		ringCapacity = DefaultRingCapacity
	}
	return &Extractor{book: b, ring: newMidPriceRing(ringCapacity)}
}

// Microprice returns the size-weighted fair-value estimate between best
// bid and best ask. It is undefined (ok=false) if either side is empty.
func Microprice(bidPrice, bidSize, askPrice, askSize fpdecimal.Decimal) (fpdecimal.Decimal, bool) {
	if bidSize.LessThanOrEqual(fpdecimal.Zero) || askSize.LessThanOrEqual(fpdecimal.Zero) {
		return fpdecimal.Zero, false
	}
	denom := bidSize.Add(askSize)
	num := bidPrice.Mul(askSize).Add(askPrice.Mul(bidSize))
	return num.Div(denom), true
}

// Imbalance returns the normalized difference between cumulative bid and
// ask sizes over the top n levels of book. Returns zero when the sum is
// zero.
func Imbalance(book_ *book.OrderBook, n int) fpdecimal.Decimal {
	bids := book_.Depth(core.Buy, n)
	asks := book_.Depth(core.Sell, n)

	bidSum := fpdecimal.Zero
	for _, l := range bids {
		bidSum = bidSum.Add(l.AggregateSize)
	}
	askSum := fpdecimal.Zero
	for _, l := range asks {
		askSum = askSum.Add(l.AggregateSize)
	}

	sum := bidSum.Add(askSum)
	if sum.Equal(fpdecimal.Zero) {
		return fpdecimal.Zero
	}
	return bidSum.Sub(askSum).Div(sum)
}

// Sample records the current mid-price into the volatility ring. Call
// once per replay event step, after the step's book mutation, per §4.4.
func (e *Extractor) Sample() {
	bidPrice, _, bidOK := e.book.BestBid()
	askPrice, _, askOK := e.book.BestAsk()
	if !bidOK || !askOK {
		return
	}
	mid := bidPrice.Add(askPrice).Div(fpdecimal.FromFloat(2.0))
	e.ring.push(mid)
}

// Volatility returns the standard deviation of the last window
// mid-price samples. Returns 0 when fewer than 2 samples are available.
func (e *Extractor) Volatility(window int) float64 {
	samples := e.ring.last(window)
	if len(samples) < 2 {
		return 0
	}

	var sum float64
	vals := make([]float64, len(samples))
	for i, s := range samples {
		vals[i] = s.Float64()
		sum += vals[i]
	}
	mean := sum / float64(len(vals))

	var variance float64
	for _, v := range vals {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(vals))

	return math.Sqrt(variance)
}

// Snapshot computes the full feature set for the current book state.
func (e *Extractor) Snapshot() Snapshot {
	s := Snapshot{
		Imbalance1: Imbalance(e.book, 1),
		Imbalance2: Imbalance(e.book, 2),
		Imbalance5: Imbalance(e.book, 5),
		Volatility: e.Volatility(cap(e.ring.buf)),
	}

	bidPrice, bidSize, bidOK := e.book.BestBid()
	askPrice, askSize, askOK := e.book.BestAsk()
	if bidOK && askOK {
		s.Mid = bidPrice.Add(askPrice).Div(fpdecimal.FromFloat(2.0))
		s.HasMid = true
		if mp, ok := Microprice(bidPrice, bidSize, askPrice, askSize); ok {
			s.Microprice = mp
			s.HasMicroprice = true
		}
	}
	return s
}
