package matching

import (
	"context"
	"testing"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/matchingo/pkg/book"
	"github.com/orderflow/matchingo/pkg/core"
)

func dec(f float64) fpdecimal.Decimal { return fpdecimal.FromFloat(f) }

func mustOrder(t *testing.T, id string, side core.Side, price, size float64, origin core.Origin) *core.Order {
	t.Helper()
	o, err := core.NewOrder(id, side, dec(price), dec(size), origin, false, 0)
	require.NoError(t, err)
	return o
}

func TestFIFOAtLevel(t *testing.T) {
	b := book.New()
	e := New(b)
	ctx := context.Background()

	a := mustOrder(t, "A", core.Sell, 100, 5, core.Exchange)
	fills, err := e.Submit(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, fills)

	bOrder := mustOrder(t, "B", core.Sell, 100, 5, core.Exchange)
	fills, err = e.Submit(ctx, bOrder)
	require.NoError(t, err)
	assert.Empty(t, fills)

	taker := mustOrder(t, "T", core.Buy, 100, 7, core.Maker)
	fills, err = e.Submit(ctx, taker)
	require.NoError(t, err)
	require.Len(t, fills, 2)

	assert.Equal(t, "A", fills[0].MakerOrderID)
	assert.True(t, fills[0].Size.Equal(dec(5)))
	assert.Equal(t, "B", fills[1].MakerOrderID)
	assert.True(t, fills[1].Size.Equal(dec(2)))

	remaining, ok := b.Find("B")
	require.True(t, ok)
	assert.True(t, remaining.RemainingSize.Equal(dec(3)))

	_, ok = b.Find("A")
	assert.False(t, ok)
}

func TestPriceImprovement(t *testing.T) {
	b := book.New()
	e := New(b)
	ctx := context.Background()

	_, err := e.Submit(ctx, mustOrder(t, "S", core.Sell, 100, 10, core.Exchange))
	require.NoError(t, err)

	fills, err := e.Submit(ctx, mustOrder(t, "T", core.Buy, 105, 4, core.Maker))
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.True(t, fills[0].Price.Equal(dec(100)))
	assert.True(t, fills[0].Size.Equal(dec(4)))
}

func TestNoCross(t *testing.T) {
	b := book.New()
	e := New(b)
	ctx := context.Background()

	_, err := e.Submit(ctx, mustOrder(t, "S", core.Sell, 101, 1, core.Exchange))
	require.NoError(t, err)

	fills, err := e.Submit(ctx, mustOrder(t, "B", core.Buy, 100, 1, core.Exchange))
	require.NoError(t, err)
	assert.Empty(t, fills)

	bid, bidSize, ok := b.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Equal(dec(100)))
	assert.True(t, bidSize.Equal(dec(1)))

	ask, askSize, ok := b.BestAsk()
	require.True(t, ok)
	assert.True(t, ask.Equal(dec(101)))
	assert.True(t, askSize.Equal(dec(1)))
}

func TestCancelIdempotent(t *testing.T) {
	b := book.New()
	e := New(b)
	ctx := context.Background()

	_, err := e.Submit(ctx, mustOrder(t, "x", core.Buy, 99, 2, core.Maker))
	require.NoError(t, err)

	assert.True(t, e.Cancel("x"))
	assert.False(t, e.Cancel("x"))

	_, _, ok := b.BestBid()
	assert.False(t, ok)
}

func TestLevelExactlyConsumedRemovesLevel(t *testing.T) {
	b := book.New()
	e := New(b)
	ctx := context.Background()

	_, err := e.Submit(ctx, mustOrder(t, "S", core.Sell, 100, 5, core.Exchange))
	require.NoError(t, err)

	fills, err := e.Submit(ctx, mustOrder(t, "T", core.Buy, 100, 5, core.Maker))
	require.NoError(t, err)
	require.Len(t, fills, 1)

	_, _, ok := b.BestAsk()
	assert.False(t, ok)
}

func TestIOCDiscardsRemainder(t *testing.T) {
	b := book.New()
	e := New(b)
	ctx := context.Background()

	_, err := e.Submit(ctx, mustOrder(t, "S", core.Sell, 100, 2, core.Exchange))
	require.NoError(t, err)

	taker, err := core.NewOrder("T", core.Buy, dec(100), dec(5), core.Maker, true, 0)
	require.NoError(t, err)
	fills, err := e.Submit(ctx, taker)
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.True(t, fills[0].Size.Equal(dec(2)))

	_, ok := b.Find("T")
	assert.False(t, ok, "IOC remainder must not rest")
}

func TestInvalidOrderLeavesBookUnchanged(t *testing.T) {
	b := book.New()
	e := New(b)
	ctx := context.Background()

	_, err := e.Submit(ctx, mustOrder(t, "S", core.Sell, 100, 2, core.Exchange))
	require.NoError(t, err)

	bad, err := core.NewOrder("S", core.Buy, dec(101), dec(1), core.Maker, false, 0)
	require.NoError(t, err)
	_, err = e.Submit(ctx, bad)
	require.Error(t, err)

	ask, askSize, ok := b.BestAsk()
	require.True(t, ok)
	assert.True(t, ask.Equal(dec(100)))
	assert.True(t, askSize.Equal(dec(2)))
}

func TestSizeConservation(t *testing.T) {
	b := book.New()
	e := New(b)
	ctx := context.Background()

	for i, px := range []float64{100, 100.1, 100.2} {
		_, err := e.Submit(ctx, mustOrder(t, string(rune('a'+i)), core.Sell, px, 3, core.Exchange))
		require.NoError(t, err)
	}

	taker := mustOrder(t, "T", core.Buy, 100.2, 8, core.Maker)
	fills, err := e.Submit(ctx, taker)
	require.NoError(t, err)

	var total fpdecimal.Decimal = fpdecimal.Zero
	for _, f := range fills {
		total = total.Add(f.Size)
	}
	assert.True(t, total.Equal(dec(8)))
}
