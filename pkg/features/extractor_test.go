package features

import (
	"testing"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/matchingo/pkg/book"
	"github.com/orderflow/matchingo/pkg/core"
)

func dec(f float64) fpdecimal.Decimal { return fpdecimal.FromFloat(f) }

func TestMicropriceUndefinedWhenEmpty(t *testing.T) {
	_, ok := Microprice(dec(0), dec(0), dec(0), dec(0))
	assert.False(t, ok)
}

func TestMicropriceShiftsTowardAskWhenBidHeavy(t *testing.T) {
	mp, ok := Microprice(dec(100), dec(9), dec(101), dec(1))
	require.True(t, ok)
	assert.True(t, mp.GreaterThan(dec(100.5)))
}

func TestImbalanceZeroWhenEmpty(t *testing.T) {
	b := book.New()
	assert.True(t, Imbalance(b, 1).Equal(dec(0)))
}

func TestImbalancePositiveWhenBidHeavy(t *testing.T) {
	b := book.New()
	buy, err := core.NewOrder("b", core.Buy, dec(100), dec(10), core.Exchange, false, 0)
	require.NoError(t, err)
	require.NoError(t, b.InsertResting(buy))
	sell, err := core.NewOrder("s", core.Sell, dec(101), dec(2), core.Exchange, false, 0)
	require.NoError(t, err)
	require.NoError(t, b.InsertResting(sell))

	imb := Imbalance(b, 1)
	assert.True(t, imb.GreaterThan(dec(0)))
}

func TestVolatilityRequiresTwoSamples(t *testing.T) {
	b := book.New()
	e := New(b, 10)
	assert.Equal(t, 0.0, e.Volatility(10))

	buy, _ := core.NewOrder("b", core.Buy, dec(100), dec(1), core.Exchange, false, 0)
	sell, _ := core.NewOrder("s", core.Sell, dec(102), dec(1), core.Exchange, false, 0)
	require.NoError(t, b.InsertResting(buy))
	require.NoError(t, b.InsertResting(sell))
	e.Sample()
	assert.Equal(t, 0.0, e.Volatility(10))

	e.Sample()
	assert.Equal(t, 0.0, e.Volatility(10), "identical samples have zero stddev")
}

func TestVolatilityNonZeroOnMovement(t *testing.T) {
	b := book.New()
	e := New(b, 10)

	buy, _ := core.NewOrder("b", core.Buy, dec(100), dec(1), core.Exchange, false, 0)
	sell, _ := core.NewOrder("s", core.Sell, dec(102), dec(1), core.Exchange, false, 0)
	require.NoError(t, b.InsertResting(buy))
	require.NoError(t, b.InsertResting(sell))
	e.Sample()

	require.True(t, b.Cancel("s"))
	sell2, _ := core.NewOrder("s2", core.Sell, dec(110), dec(1), core.Exchange, false, 0)
	require.NoError(t, b.InsertResting(sell2))
	e.Sample()

	assert.Greater(t, e.Volatility(10), 0.0)
}
