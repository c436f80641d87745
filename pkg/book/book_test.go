package book

import (
	"testing"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/matchingo/pkg/core"
)

func dec(f float64) fpdecimal.Decimal { return fpdecimal.FromFloat(f) }

func order(t *testing.T, id string, side core.Side, price, size float64) *core.Order {
	t.Helper()
	o, err := core.NewOrder(id, side, dec(price), dec(size), core.Exchange, false, 0)
	require.NoError(t, err)
	return o
}

func TestInsertRestingAssignsArrivalSeq(t *testing.T) {
	b := New()
	a := order(t, "a", core.Buy, 100, 1)
	c := order(t, "c", core.Buy, 100, 1)

	require.NoError(t, b.InsertResting(a))
	require.NoError(t, b.InsertResting(c))

	assert.Less(t, a.ArrivalSeq, c.ArrivalSeq)
}

func TestInsertRestingRejectsInvalid(t *testing.T) {
	b := New()

	_, errConstruct := core.NewOrder("", core.Buy, dec(1), dec(1), core.Exchange, false, 0)
	assert.Error(t, errConstruct)

	dup := order(t, "dup", core.Buy, 100, 1)
	require.NoError(t, b.InsertResting(dup))
	dup2 := order(t, "dup", core.Buy, 101, 1)
	assert.Error(t, b.InsertResting(dup2))
}

func TestBestBidAskAndDepth(t *testing.T) {
	b := New()
	require.NoError(t, b.InsertResting(order(t, "b1", core.Buy, 99, 2)))
	require.NoError(t, b.InsertResting(order(t, "b2", core.Buy, 100, 3)))
	require.NoError(t, b.InsertResting(order(t, "a1", core.Sell, 102, 1)))
	require.NoError(t, b.InsertResting(order(t, "a2", core.Sell, 101, 4)))

	price, size, ok := b.BestBid()
	require.True(t, ok)
	assert.True(t, price.Equal(dec(100)))
	assert.True(t, size.Equal(dec(3)))

	price, size, ok = b.BestAsk()
	require.True(t, ok)
	assert.True(t, price.Equal(dec(101)))
	assert.True(t, size.Equal(dec(4)))

	depth := b.Depth(core.Buy, 2)
	require.Len(t, depth, 2)
	assert.True(t, depth[0].Price.Equal(dec(100)))
	assert.True(t, depth[1].Price.Equal(dec(99)))
}

func TestCancelRemovesEmptyLevel(t *testing.T) {
	b := New()
	require.NoError(t, b.InsertResting(order(t, "only", core.Buy, 100, 1)))

	assert.True(t, b.Cancel("only"))
	assert.False(t, b.Cancel("only"))

	_, _, ok := b.BestBid()
	assert.False(t, ok)
}

func TestCancelThenReinsertSamePriceRecreatesLevel(t *testing.T) {
	b := New()
	require.NoError(t, b.InsertResting(order(t, "x", core.Buy, 100, 1)))
	require.True(t, b.Cancel("x"))
	require.NoError(t, b.InsertResting(order(t, "y", core.Buy, 100, 2)))

	price, size, ok := b.BestBid()
	require.True(t, ok)
	assert.True(t, price.Equal(dec(100)))
	assert.True(t, size.Equal(dec(2)))
}

func TestFindReflectsResidentOrder(t *testing.T) {
	b := New()
	o := order(t, "z", core.Sell, 50, 5)
	require.NoError(t, b.InsertResting(o))

	got, ok := b.Find("z")
	require.True(t, ok)
	assert.Equal(t, o, got)

	_, ok = b.Find("missing")
	assert.False(t, ok)
}
