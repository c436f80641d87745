package replay

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/matchingo/pkg/core"
)

func TestEncodeDecodeRoundTripsDepthDelta(t *testing.T) {
	ev := Event{TS: 7, Kind: EventDepthDelta, Side: core.Sell, Price: dec(101), Aggregate: dec(4)}
	data, err := EncodeEventJSON(ev)
	require.NoError(t, err)

	got, err := DecodeEventJSON(data)
	require.NoError(t, err)
	assert.Equal(t, ev.TS, got.TS)
	assert.Equal(t, ev.Kind, got.Kind)
	assert.Equal(t, ev.Side, got.Side)
	assert.True(t, ev.Price.Equal(got.Price))
	assert.True(t, ev.Aggregate.Equal(got.Aggregate))
}

func TestEncodeDecodeRoundTripsTrade(t *testing.T) {
	ev := Event{TS: 3, Kind: EventTrade, Side: core.Buy, Price: dec(99), Size: dec(2)}
	data, err := EncodeEventJSON(ev)
	require.NoError(t, err)

	got, err := DecodeEventJSON(data)
	require.NoError(t, err)
	assert.Equal(t, ev.Kind, got.Kind)
	assert.True(t, ev.Size.Equal(got.Size))
}

func TestFileSourceReadsLinesUntilExhausted(t *testing.T) {
	raw := `{"ts":1,"kind":"tick"}
{"ts":2,"kind":"depth","side":"buy","price":"100","aggregate":"1"}
`
	src := NewFileSource(strings.NewReader(raw))
	ctx := context.Background()

	ev1, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, EventTick, ev1.Kind)

	ev2, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, EventDepthDelta, ev2.Kind)

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, ErrSourceExhausted)
}
