// Package live drives the Simulator against a live feed instead of a
// fixed recording: a two-goroutine loop that pulls events off the feed
// as they arrive at a rate-limited pace, polls an order gateway for
// fill confirmations, and periodically checkpoints to a Store.
package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/orderflow/matchingo/pkg/core"
	"github.com/orderflow/matchingo/pkg/replay"
	"github.com/orderflow/matchingo/pkg/sink/kafka"
	"github.com/orderflow/matchingo/pkg/state"
)

// Config tunes the live loop's checkpoint cadence, gateway poll cadence,
// and outbound order rate.
type Config struct {
	// CheckpointInterval is how often the loop saves state to the
	// Store, independent of event arrival.
	CheckpointInterval time.Duration
	// GatewayPollInterval is how often the loop polls the OrderPlacer
	// gateway for fill confirmations and reconciles inventory against
	// them.
	GatewayPollInterval time.Duration
	// MaxOrdersPerSecond caps how many feed events per second the loop
	// pulls and steps through the Simulator (and so, indirectly, how
	// often the strategy can submit orders). Individual Submit calls are
	// not limited.
	MaxOrdersPerSecond float64
}

// DefaultConfig returns sane defaults for the live loop.
func DefaultConfig() Config {
	return Config{
		CheckpointInterval:  5 * time.Second,
		GatewayPollInterval: 5 * time.Second,
		MaxOrdersPerSecond:  50,
	}
}

// Loop drives a Simulator against a live replay.Source, checkpointing
// to a Store, reconciling inventory against an OrderPlacer gateway, and
// publishing fills through a sink Pool.
type Loop struct {
	cfg      Config
	sim      *replay.Simulator
	source   replay.Source
	store    *state.Store
	sinkPool *kafka.Pool
	gateway  OrderPlacer
	limiter  *rate.Limiter
	logger   zerolog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New constructs a Loop. store and sinkPool may be nil to run without
// checkpointing or fill publication, e.g. in tests. gateway may be nil,
// in which case a NoopOrderPlacer is used.
func New(cfg Config, sim *replay.Simulator, source replay.Source, store *state.Store, sinkPool *kafka.Pool, gateway OrderPlacer, logger zerolog.Logger) *Loop {
	if gateway == nil {
		gateway = NoopOrderPlacer{}
	}
	return &Loop{
		cfg:      cfg,
		sim:      sim,
		source:   source,
		store:    store,
		sinkPool: sinkPool,
		gateway:  gateway,
		limiter:  rate.NewLimiter(rate.Limit(cfg.MaxOrdersPerSecond), int(cfg.MaxOrdersPerSecond)),
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Run blocks, driving events from the feed through the Simulator and
// polling the gateway for fill confirmations, until ctx is canceled,
// Stop is called, the feed is exhausted, or the feed reports a
// non-exhaustion error or the Simulator raises an EngineFault.
func (l *Loop) Run(ctx context.Context) error {
	l.wg.Add(1)
	defer l.wg.Done()

	ticker := time.NewTicker(l.cfg.CheckpointInterval)
	defer ticker.Stop()

	pollTicker := time.NewTicker(l.cfg.GatewayPollInterval)
	defer pollTicker.Stop()

	errCh := make(chan error, 1)
	done := make(chan struct{})
	go l.drainEvents(ctx, errCh, done)
	go l.pollGateway(ctx, pollTicker)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info().Msg("context canceled, saving final checkpoint")
			return l.checkpoint(context.Background())
		case <-l.stopCh:
			l.logger.Info().Msg("stop requested, saving final checkpoint")
			return l.checkpoint(context.Background())
		case err := <-errCh:
			return err
		case <-done:
			l.logger.Info().Msg("feed exhausted, saving final checkpoint")
			return l.checkpoint(context.Background())
		case <-ticker.C:
			if err := l.checkpoint(ctx); err != nil {
				l.logger.Error().Err(err).Msg("periodic checkpoint failed")
			}
		}
	}
}

// pollGateway runs as a second goroutine alongside drainEvents, polling
// the OrderPlacer gateway on its own ticker for fill confirmations
// observed on the venue side and folding them into the Simulator's
// inventory. It never touches the OrderBook: gateway fills are a
// separate accounting concern from the locally-matched fills drainEvents
// already applies.
func (l *Loop) pollGateway(ctx context.Context, ticker *time.Ticker) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-ticker.C:
			fills, err := l.gateway.PollFills(ctx)
			if err != nil {
				l.logger.Warn().Err(err).Msg("gateway poll failed")
				continue
			}
			for _, gf := range fills {
				l.sim.AdjustInventory(gatewaySignedSize(gf.Side, gf.Size))
				l.logger.Info().Str("order_id", gf.OrderID).Str("size", gf.Size.String()).Msg("gateway fill reconciled")
			}
		}
	}
}

// drainEvents pulls one event at a time off the feed and steps the
// Simulator, rate-limiting the pace of ingestion and publishing any
// resulting fills.
func (l *Loop) drainEvents(ctx context.Context, errCh chan<- error, done chan<- struct{}) {
	for {
		if err := l.limiter.Wait(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("live: rate limiter: %w", err)
			}
			return
		}

		ev, err := l.source.Next(ctx)
		if err != nil {
			if errors.Is(err, replay.ErrSourceExhausted) {
				close(done)
				return
			}
			errCh <- fmt.Errorf("live: read event: %w", err)
			return
		}

		fills, err := l.sim.Step(ctx, ev)
		if err != nil {
			var fault *core.EngineFault
			if errors.As(err, &fault) {
				errCh <- err
				return
			}
			l.logger.Warn().Err(err).Msg("event rejected, continuing")
			continue
		}

		l.publishFills(fills)
	}
}

func (l *Loop) publishFills(fills []core.Fill) {
	if l.sinkPool == nil {
		return
	}
	for _, f := range fills {
		if err := l.sinkPool.RecordFill(f); err != nil {
			l.logger.Error().Err(err).Str("maker_order_id", f.MakerOrderID).Msg("publish fill failed")
		}
	}
}

// Stop signals Run to shut down and blocks until it has.
func (l *Loop) Stop() {
	close(l.stopCh)
	l.wg.Wait()
}

func (l *Loop) checkpoint(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	return l.store.Save(ctx, state.Checkpoint{
		Quotes:     l.sim.OpenQuotes(),
		Inventory:  l.sim.Inventory(),
		ClockNanos: l.sim.Clock(),
	})
}
