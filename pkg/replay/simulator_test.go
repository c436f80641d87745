package replay

import (
	"context"
	"testing"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/matchingo/pkg/book"
	"github.com/orderflow/matchingo/pkg/core"
	"github.com/orderflow/matchingo/pkg/features"
	"github.com/orderflow/matchingo/pkg/matching"
	"github.com/orderflow/matchingo/pkg/strategy"
)

func dec(f float64) fpdecimal.Decimal { return fpdecimal.FromFloat(f) }

// noopStrategy never quotes; used to isolate depth-delta reconciliation
// from strategy side effects.
type noopStrategy struct{}

func (noopStrategy) OnStep(features.Snapshot, fpdecimal.Decimal, []strategy.OpenQuote, int64) strategy.QuoteAction {
	return strategy.QuoteAction{}
}

func newHarness() (*book.OrderBook, *matching.Engine, *features.Extractor) {
	b := book.New()
	e := matching.New(b)
	ex := features.New(b, 64)
	return b, e, ex
}

func TestDepthDeltaReconciliationLeavesMakerUntouched(t *testing.T) {
	b, e, ex := newHarness()
	sim := New(b, e, ex, noopStrategy{})
	ctx := context.Background()

	maker, err := core.NewOrder("mine", core.Buy, dec(100), dec(1), core.Maker, false, 0)
	require.NoError(t, err)
	require.NoError(t, b.InsertResting(maker))

	src := NewSliceSource([]Event{
		{TS: 1, Kind: EventDepthDelta, Side: core.Buy, Price: dec(100), Aggregate: dec(5)},
		{TS: 2, Kind: EventDepthDelta, Side: core.Buy, Price: dec(100), Aggregate: dec(3)},
	})

	_, err = sim.Run(ctx, src)
	require.NoError(t, err)

	_, size, ok := b.BestBid()
	require.True(t, ok)
	// 1 (maker, untouched) + 3 (exchange aggregate after shrink) = 4
	assert.True(t, size.Equal(dec(4)), "got %s", size.String())

	m, ok := b.Find("mine")
	require.True(t, ok)
	assert.True(t, m.RemainingSize.Equal(dec(1)))
}

func TestDeterministicReplay(t *testing.T) {
	events := []Event{
		{TS: 1, Kind: EventDepthDelta, Side: core.Buy, Price: dec(100), Aggregate: dec(5)},
		{TS: 2, Kind: EventDepthDelta, Side: core.Sell, Price: dec(101), Aggregate: dec(5)},
		{TS: 3, Kind: EventTick},
		{TS: 4, Kind: EventTrade, Side: core.Sell, Price: dec(101), Size: dec(1)},
		{TS: 5, Kind: EventDepthDelta, Side: core.Buy, Price: dec(100), Aggregate: dec(2)},
	}

	run := func() Result {
		b, e, ex := newHarness()
		strat := strategy.NewNaiveFixedSpread(dec(1), dec(1), "mm")
		sim := New(b, e, ex, strat)
		res, err := sim.Run(context.Background(), NewSliceSource(append([]Event(nil), events...)))
		require.NoError(t, err)
		return res
	}

	r1 := run()
	r2 := run()

	require.Equal(t, len(r1.Fills), len(r2.Fills))
	for i := range r1.Fills {
		assert.Equal(t, r1.Fills[i].MakerOrderID, r2.Fills[i].MakerOrderID)
		assert.Equal(t, r1.Fills[i].TakerOrderID, r2.Fills[i].TakerOrderID)
		assert.True(t, r1.Fills[i].Size.Equal(r2.Fills[i].Size))
		assert.True(t, r1.Fills[i].Price.Equal(r2.Fills[i].Price))
	}
	assert.True(t, r1.FinalInventory.Equal(r2.FinalInventory))
	assert.Equal(t, r1.FinalClock, r2.FinalClock)
}

func TestOutOfOrderEventIsProtocolError(t *testing.T) {
	b, e, ex := newHarness()
	sim := New(b, e, ex, noopStrategy{})

	src := NewSliceSource([]Event{
		{TS: 5, Kind: EventTick},
		{TS: 1, Kind: EventTick},
	})

	_, err := sim.Run(context.Background(), src)
	require.Error(t, err)
	var protoErr *core.ProtocolError
	assert.ErrorAs(t, err, &protoErr)
}
