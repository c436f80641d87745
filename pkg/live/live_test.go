package live

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/matchingo/pkg/book"
	"github.com/orderflow/matchingo/pkg/core"
	"github.com/orderflow/matchingo/pkg/features"
	"github.com/orderflow/matchingo/pkg/matching"
	"github.com/orderflow/matchingo/pkg/replay"
	"github.com/orderflow/matchingo/pkg/strategy"
)

func dec(f float64) fpdecimal.Decimal { return fpdecimal.FromFloat(f) }

func TestLoopRunStopsOnFeedExhaustion(t *testing.T) {
	b := book.New()
	e := matching.New(b)
	ex := features.New(b, 32)
	strat := strategy.NewNaiveFixedSpread(dec(1), dec(1), "mm")
	sim := replay.New(b, e, ex, strat)

	src := replay.NewSliceSource([]replay.Event{
		{TS: 1, Kind: replay.EventDepthDelta, Side: core.Buy, Price: dec(100), Aggregate: dec(5)},
		{TS: 2, Kind: replay.EventDepthDelta, Side: core.Sell, Price: dec(101), Aggregate: dec(5)},
	})

	cfg := DefaultConfig()
	cfg.CheckpointInterval = time.Hour
	cfg.MaxOrdersPerSecond = 1000

	loop := New(cfg, sim, src, nil, nil, nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := loop.Run(ctx)
	require.NoError(t, err)
}

// fakeGateway reports a fixed set of fills on its first poll, then
// none, and records whether CancelAll was invoked.
type fakeGateway struct {
	fills    []GatewayFill
	polled   bool
	canceled bool
}

func (g *fakeGateway) PollFills(ctx context.Context) ([]GatewayFill, error) {
	if g.polled {
		return nil, nil
	}
	g.polled = true
	return g.fills, nil
}

func (g *fakeGateway) CancelAll(ctx context.Context) error {
	g.canceled = true
	return nil
}

func (g *fakeGateway) Close() error { return nil }

// openUntilDone wraps a Source so that, once drained, Next blocks until
// ctx ends instead of reporting exhaustion.
type openUntilDone struct{ replay.Source }

func (s openUntilDone) Next(ctx context.Context) (replay.Event, error) {
	ev, err := s.Source.Next(ctx)
	if errors.Is(err, replay.ErrSourceExhausted) {
		<-ctx.Done()
		return replay.Event{}, ctx.Err()
	}
	return ev, err
}

func TestLoopReconcilesInventoryFromGatewayPolls(t *testing.T) {
	b := book.New()
	e := matching.New(b)
	ex := features.New(b, 32)
	strat := strategy.NewNaiveFixedSpread(dec(1), dec(1), "mm")
	sim := replay.New(b, e, ex, strat)

	// Run returns (and stops polling) once the feed is exhausted, so the
	// feed stays open until ctx ends to give the gateway poller time to tick.
	src := openUntilDone{replay.NewSliceSource([]replay.Event{
		{TS: 1, Kind: replay.EventDepthDelta, Side: core.Buy, Price: dec(100), Aggregate: dec(5)},
	})}

	gw := &fakeGateway{fills: []GatewayFill{
		{OrderID: "venue-1", Side: core.Buy, Size: dec(2), Price: dec(100)},
		{OrderID: "venue-2", Side: core.Sell, Size: dec(1), Price: dec(101)},
	}}

	cfg := DefaultConfig()
	cfg.CheckpointInterval = time.Hour
	cfg.GatewayPollInterval = 10 * time.Millisecond
	cfg.MaxOrdersPerSecond = 1000

	loop := New(cfg, sim, src, nil, nil, gw, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_ = loop.Run(ctx)

	require.True(t, gw.polled)
	require.True(t, sim.Inventory().Equal(dec(1)))
}
