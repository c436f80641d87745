// Command live drives the matching engine and quoting strategy against
// a live Kafka book-event feed, checkpointing to Redis and publishing
// fills to Kafka.
//
// Usage: live --api-key K --api-secret S [--paper]
// Runs until SIGINT/SIGTERM, then issues cancel-all and exits 0.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/orderflow/matchingo/pkg/book"
	"github.com/orderflow/matchingo/pkg/config"
	"github.com/orderflow/matchingo/pkg/feed"
	"github.com/orderflow/matchingo/pkg/features"
	"github.com/orderflow/matchingo/pkg/live"
	"github.com/orderflow/matchingo/pkg/logging"
	"github.com/orderflow/matchingo/pkg/matching"
	"github.com/orderflow/matchingo/pkg/replay"
	sinkkafka "github.com/orderflow/matchingo/pkg/sink/kafka"
	"github.com/orderflow/matchingo/pkg/state"
	"github.com/orderflow/matchingo/pkg/strategy"
)

var (
	apiKey    = flag.String("api-key", "", "exchange gateway API key")
	apiSecret = flag.String("api-secret", "", "exchange gateway API secret")
	paper     = flag.Bool("paper", false, "paper trading: run the strategy without publishing fills externally")
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("live: load config")
	}
	logging.Setup(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger := logging.FromContext(context.Background())

	if !*paper && (*apiKey == "" || *apiSecret == "") {
		log.Fatal().Msg("live: -api-key and -api-secret are required outside -paper mode")
	}

	halfSpread, err := fpdecimal.FromString(cfg.Strategy.HalfSpread)
	if err != nil {
		log.Fatal().Err(err).Msg("live: parse strategy.half_spread")
	}
	size, err := fpdecimal.FromString(cfg.Strategy.Size)
	if err != nil {
		log.Fatal().Err(err).Msg("live: parse strategy.size")
	}
	strat := strategy.NewNaiveFixedSpread(halfSpread, size, "mm")

	b := book.New()
	engine := matching.New(b)
	extractor := features.New(b, cfg.Strategy.RingCapacity)
	sim := replay.New(b, engine, extractor, strat)

	brokers := strings.Split(cfg.Kafka.BrokerAddr, ",")
	source := feed.NewKafkaSource(brokers, cfg.Kafka.FeedTopic, cfg.Kafka.GroupID)
	defer source.Close()

	var sinkPool *sinkkafka.Pool
	if !*paper {
		sinkPool, err = sinkkafka.NewPool(4, brokers, cfg.Kafka.FillTopic)
		if err != nil {
			log.Fatal().Err(err).Msg("live: start fill sink pool")
		}
		defer sinkPool.Close()
	} else {
		logger.Info().Msg("paper mode: fills will not be published externally")
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	store := state.New(redisClient, "matchingo-live-"+cfg.Symbol, nil)
	defer store.Close()

	// A real venue client is a Non-goal; gateway connectivity details
	// are out of scope, so the gateway that PollFills/CancelAll talk to
	// is a no-op outside paper mode too until one is wired in.
	var gateway live.OrderPlacer = live.NoopOrderPlacer{}
	defer gateway.Close()

	loopCfg := live.Config{
		CheckpointInterval:  cfg.CheckpointInterval(),
		GatewayPollInterval: cfg.CheckpointInterval(),
		MaxOrdersPerSecond:  cfg.Live.MaxOrdersPerSecond,
	}
	loop := live.New(loopCfg, sim, source, store, sinkPool, gateway, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		cancel()
	}()

	runErr := loop.Run(ctx)

	cancelCtx, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	if err := gateway.CancelAll(cancelCtx); err != nil {
		logger.Error().Err(err).Msg("gateway cancel-all failed")
	}
	cancelTimeout()

	resting := sim.OpenQuotes()
	for _, q := range resting {
		engine.Cancel(q.OrderID)
	}
	logger.Info().Int("canceled", len(resting)).Msg("cancel-all issued on shutdown")

	if runErr != nil {
		logger.Error().Err(runErr).Msg("live loop terminated")
		time.Sleep(100 * time.Millisecond) // let the log line flush before exit
		os.Exit(1)
	}
	logger.Info().Msg("live loop stopped cleanly")
}
