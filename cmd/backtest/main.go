// Command backtest replays a recorded book-event log through the
// matching engine and quoting strategy, and prints a fill summary.
//
// Usage: backtest --date YYYY-MM-DD [--symbol S] [--strategy naive|ev]
// Exit codes: 0 on completion, 2 on missing event data, 1 on EngineFault.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/nikolaydubina/fpdecimal"
	"github.com/rs/zerolog/log"

	"github.com/orderflow/matchingo/pkg/book"
	"github.com/orderflow/matchingo/pkg/config"
	"github.com/orderflow/matchingo/pkg/core"
	"github.com/orderflow/matchingo/pkg/features"
	"github.com/orderflow/matchingo/pkg/logging"
	"github.com/orderflow/matchingo/pkg/matching"
	"github.com/orderflow/matchingo/pkg/replay"
	"github.com/orderflow/matchingo/pkg/strategy"
)

var (
	date       = flag.String("date", "", "session date to replay, YYYY-MM-DD")
	strategyFl = flag.String("strategy", "", "override strategy.kind from config: naive or ev")
	dataDir    = flag.String("data_dir", "./data", "directory holding <symbol>/<date>.jsonl event logs")
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	if *date == "" {
		log.Fatal().Msg("backtest: -date is required")
	}
	if *strategyFl != "" {
		cfg.Strategy.Kind = *strategyFl
		if cfg.Strategy.Kind == "ev" {
			cfg.Strategy.Kind = "ev_maker"
		}
	}

	path := filepath.Join(*dataDir, cfg.Symbol, *date+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backtest: no event log for %s on %s: %v\n", cfg.Symbol, *date, err)
		os.Exit(2)
	}
	defer f.Close()

	strat, err := buildStrategy(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("backtest: build strategy")
	}

	b := book.New()
	engine := matching.New(b)
	extractor := features.New(b, cfg.Strategy.RingCapacity)
	sim := replay.New(b, engine, extractor, strat)

	src := replay.NewFileSource(f)
	res, err := sim.Run(context.Background(), src)
	if err != nil {
		var fault *core.EngineFault
		if errors.As(err, &fault) {
			log.Error().Err(err).Msg("backtest: engine fault")
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("backtest: run")
	}

	printSummary(res)
}

func parseDecimalFlag(s string) (fpdecimal.Decimal, error) {
	return fpdecimal.FromString(s)
}

// defaultFillProbTable is a plausible, hand-set fill probability curve
// used when no venue-fitted table is configured: quotes near mid fill
// often, quotes far from mid rarely do.
func defaultFillProbTable() strategy.FillProbabilityTable {
	return strategy.FillProbabilityTable{
		Distances: []fpdecimal.Decimal{
			fpdecimal.FromFloat(0.5),
			fpdecimal.FromFloat(1.0),
			fpdecimal.FromFloat(2.0),
			fpdecimal.FromFloat(3.0),
			fpdecimal.FromFloat(5.0),
		},
		Probs: []float64{0.9, 0.7, 0.4, 0.2, 0.05},
	}
}

func buildStrategy(cfg *config.Config) (strategy.Strategy, error) {
	halfSpread, err := parseDecimalFlag(cfg.Strategy.HalfSpread)
	if err != nil {
		return nil, err
	}
	size, err := parseDecimalFlag(cfg.Strategy.Size)
	if err != nil {
		return nil, err
	}

	switch cfg.Strategy.Kind {
	case "ev_maker":
		maxHalfSpread, err := parseDecimalFlag(cfg.Strategy.MaxHalfSpread)
		if err != nil {
			return nil, err
		}
		skewK, err := parseDecimalFlag(cfg.Strategy.SkewK)
		if err != nil {
			return nil, err
		}
		continuityClip, err := parseDecimalFlag(cfg.Strategy.ContinuityClip)
		if err != nil {
			return nil, err
		}
		return strategy.NewEVMakerInventorySkew(maxHalfSpread, skewK, defaultFillProbTable(), nil, 0, continuityClip, "mm"), nil
	default:
		return strategy.NewNaiveFixedSpread(halfSpread, size, "mm"), nil
	}
}

func printSummary(res replay.Result) {
	color.NoColor = false
	cyan := color.New(color.FgCyan).SprintfFunc()
	green := color.New(color.FgGreen).SprintfFunc()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "%s\t%s\n", cyan("Events applied"), green(fmt.Sprintf("%d", res.EventsApplied)))
	fmt.Fprintf(w, "%s\t%s\n", cyan("Fills"), green(fmt.Sprintf("%d", len(res.Fills))))
	fmt.Fprintf(w, "%s\t%s\n", cyan("Final inventory"), green(res.FinalInventory.String()))
	fmt.Fprintf(w, "%s\t%s\n", cyan("Final clock"), green(fmt.Sprintf("%d", res.FinalClock)))
	w.Flush()
}
