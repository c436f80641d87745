// Package config loads the backtest/live process configuration: a YAML
// file merged with command-line flags and MATCHINGO_-prefixed
// environment variable overrides.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for cmd/backtest and cmd/live.
type Config struct {
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Kafka struct {
		BrokerAddr string `yaml:"broker_addr"`
		FeedTopic  string `yaml:"feed_topic"`
		FillTopic  string `yaml:"fill_topic"`
		GroupID    string `yaml:"group_id"`
	} `yaml:"kafka"`

	Strategy struct {
		Kind           string `yaml:"kind"` // "naive" or "ev_maker"
		HalfSpread     string `yaml:"half_spread"`
		MaxHalfSpread  string `yaml:"max_half_spread"`
		Size           string `yaml:"size"`
		SkewK          string `yaml:"skew_k"`
		ContinuityClip string `yaml:"continuity_clip"`
		RingCapacity   int    `yaml:"ring_capacity"`
	} `yaml:"strategy"`

	Symbol string `yaml:"symbol"`

	Live struct {
		CheckpointIntervalSeconds int     `yaml:"checkpoint_interval_seconds"`
		MaxOrdersPerSecond        float64 `yaml:"max_orders_per_second"`
	} `yaml:"live"`
}

var (
	configFile   = flag.String("config", "", "path to YAML config file")
	logLevel     = flag.String("log_level", "info", "log level: debug, info, warn, error")
	logPretty    = flag.Bool("log_pretty", false, "human-readable console logging")
	redisAddr    = flag.String("redis_addr", "localhost:6379", "Redis address for state checkpoints")
	kafkaBrokers = flag.String("kafka_broker_addr", "localhost:9092", "Kafka broker address")
	kafkaFeed    = flag.String("kafka_feed_topic", "matchingo-events", "Kafka topic for the incoming book-event feed")
	kafkaFills   = flag.String("kafka_fill_topic", "matchingo-fills", "Kafka topic for published fills")
	symbol       = flag.String("symbol", "BTC-USD", "instrument symbol to trade or replay")
)

// Load parses command-line flags and, if -config is set, layers a YAML
// file over the flag defaults, then layers MATCHINGO_-prefixed
// environment variables over both.
func Load() (*Config, error) {
	if !flag.Parsed() {
		flag.Parse()
	}

	cfg := &Config{}
	cfg.Log.Level = *logLevel
	cfg.Log.Pretty = *logPretty
	cfg.Redis.Addr = *redisAddr
	cfg.Kafka.BrokerAddr = *kafkaBrokers
	cfg.Kafka.FeedTopic = *kafkaFeed
	cfg.Kafka.FillTopic = *kafkaFills
	cfg.Kafka.GroupID = "matchingo-live"
	cfg.Symbol = *symbol
	cfg.Strategy.Kind = "naive"
	cfg.Strategy.HalfSpread = "1"
	cfg.Strategy.MaxHalfSpread = "5"
	cfg.Strategy.Size = "1"
	cfg.Strategy.SkewK = "0.1"
	cfg.Strategy.ContinuityClip = "0.1"
	cfg.Strategy.RingCapacity = 4096
	cfg.Live.CheckpointIntervalSeconds = 5
	cfg.Live.MaxOrdersPerSecond = 50

	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", *configFile, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", *configFile, err)
		}
		log.Printf("config: loaded %s", *configFile)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides layers MATCHINGO_-prefixed environment variables
// over cfg, for the fields an operator most often needs to change
// per-deployment without editing the YAML file.
func applyEnvOverrides(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix("MATCHINGO")
	v.AutomaticEnv()

	if v.IsSet("REDIS_ADDR") {
		cfg.Redis.Addr = v.GetString("REDIS_ADDR")
	}
	if v.IsSet("KAFKA_BROKER_ADDR") {
		cfg.Kafka.BrokerAddr = v.GetString("KAFKA_BROKER_ADDR")
	}
	if v.IsSet("LOG_LEVEL") {
		cfg.Log.Level = v.GetString("LOG_LEVEL")
	}
	if v.IsSet("SYMBOL") {
		cfg.Symbol = v.GetString("SYMBOL")
	}
	if v.IsSet("STRATEGY_KIND") {
		cfg.Strategy.Kind = v.GetString("STRATEGY_KIND")
	}
	if v.IsSet("MAX_ORDERS_PER_SECOND") {
		cfg.Live.MaxOrdersPerSecond = v.GetFloat64("MAX_ORDERS_PER_SECOND")
	}
}

// CheckpointInterval returns the Live checkpoint cadence as a
// time.Duration.
func (c *Config) CheckpointInterval() time.Duration {
	return time.Duration(c.Live.CheckpointIntervalSeconds) * time.Second
}
