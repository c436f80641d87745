package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikolaydubina/fpdecimal"

	"github.com/orderflow/matchingo/pkg/book"
	"github.com/orderflow/matchingo/pkg/core"
	"github.com/orderflow/matchingo/pkg/features"
	otelx "github.com/orderflow/matchingo/pkg/otel"
	"github.com/orderflow/matchingo/pkg/strategy"
)

// Result summarizes one completed replay run: the byte-comparable
// artifact P7's determinism property is checked against.
type Result struct {
	Fills          []core.Fill
	EventsApplied  int
	FinalInventory fpdecimal.Decimal
	FinalClock     int64
}

// Engine is the subset of *matching.Engine the Simulator depends on.
// Declaring it here rather than importing pkg/matching keeps the
// Simulator decoupled from the matching engine's instrumentation.
type Engine interface {
	Submit(ctx context.Context, order *core.Order) ([]core.Fill, error)
	Cancel(orderID string) bool
}

// Simulator drives the Book Store, Matching Engine, Feature Extractor
// and Quoting Strategy over a Source, single-threaded and
// deterministically (§4.3, §5).
type Simulator struct {
	book      *book.OrderBook
	engine    Engine
	extractor *features.Extractor
	strategy  strategy.Strategy

	clock      int64
	inventory  fpdecimal.Decimal
	openQuotes map[string]strategy.OpenQuote

	// exchangeAgg tracks the venue's last-reported aggregate size at
	// each (side, price), so DepthDelta can be reconciled as a delta
	// rather than a snapshot replacement.
	exchangeAgg map[core.Side]map[string]fpdecimal.Decimal

	exchangeSeq int64

	fills []core.Fill
}

// New constructs a Simulator over an existing Book Store, matching
// engine, feature extractor and strategy.
func New(b *book.OrderBook, engine Engine, extractor *features.Extractor, strat strategy.Strategy) *Simulator {
	return &Simulator{
		book:        b,
		engine:      engine,
		extractor:   extractor,
		strategy:    strat,
		inventory:   fpdecimal.Zero,
		openQuotes:  make(map[string]strategy.OpenQuote),
		exchangeAgg: map[core.Side]map[string]fpdecimal.Decimal{core.Buy: {}, core.Sell: {}},
	}
}

// Run drains src to completion or the first error from src or from a
// step (a read or decode error, a ProtocolError, an EngineFault),
// applying each event and reconciling the strategy's quotes.
func (s *Simulator) Run(ctx context.Context, src Source) (Result, error) {
	count := 0
	for {
		ev, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrSourceExhausted) {
				break
			}
			return s.result(count), err
		}
		if _, err := s.Step(ctx, ev); err != nil {
			return s.result(count), err
		}
		count++
	}
	return s.result(count), nil
}

// Clock returns the simulator's current logical clock, the ts of the
// last event applied.
func (s *Simulator) Clock() int64 { return s.clock }

// Inventory returns the strategy's current net position.
func (s *Simulator) Inventory() fpdecimal.Decimal { return s.inventory }

// AdjustInventory applies a delta observed from outside the Simulator's
// own fill accounting, e.g. an exchange gateway's fill confirmations in
// pkg/live, without touching the book.
func (s *Simulator) AdjustInventory(delta fpdecimal.Decimal) {
	s.inventory = s.inventory.Add(delta)
}

// OpenQuotes returns a snapshot of the strategy's currently resting
// quotes, keyed by order id.
func (s *Simulator) OpenQuotes() []strategy.OpenQuote {
	out := make([]strategy.OpenQuote, 0, len(s.openQuotes))
	for _, q := range s.openQuotes {
		out = append(out, q)
	}
	return out
}

func (s *Simulator) result(count int) Result {
	return Result{
		Fills:          s.fills,
		EventsApplied:  count,
		FinalInventory: s.inventory,
		FinalClock:     s.clock,
	}
}

// Step applies one event and runs the full reconcile cycle (§4.3 Loop),
// returning the fills produced by this event alone (a subslice of the
// cumulative fills reported in Run's Result). Exported so package live
// can drive the Simulator one live event at a time.
func (s *Simulator) Step(ctx context.Context, ev Event) ([]core.Fill, error) {
	if ev.TS < s.clock {
		return nil, core.NewProtocolError(fmt.Errorf("%w: event ts %d precedes clock %d", core.ErrOutOfOrderEvent, ev.TS, s.clock))
	}
	s.clock = ev.TS
	before := len(s.fills)

	ctx, span := otelx.StartOrderSpan(ctx, otelx.SpanReplayStep)
	if span != nil {
		defer span.End()
	}

	switch ev.Kind {
	case EventDepthDelta:
		if err := s.applyDepthDelta(ev); err != nil {
			return nil, err
		}
	case EventTrade:
		if err := s.applyTrade(ctx, ev); err != nil {
			return nil, err
		}
	case EventTick:
		// pure clock advance, no book mutation.
	default:
		return nil, core.NewProtocolError(fmt.Errorf("unknown event kind %d", ev.Kind))
	}

	s.extractor.Sample()
	snap := s.extractor.Snapshot()

	open := make([]strategy.OpenQuote, 0, len(s.openQuotes))
	for _, q := range s.openQuotes {
		open = append(open, q)
	}

	action := s.strategy.OnStep(snap, s.inventory, open, s.clock)
	if action.Empty() {
		return s.fills[before:], nil
	}

	for _, id := range action.Cancels {
		s.engine.Cancel(id)
		delete(s.openQuotes, id)
	}

	for _, order := range action.Inserts {
		takerSide := order.Side
		fills, err := s.engine.Submit(ctx, order)
		if err != nil {
			var fault *core.EngineFault
			if errors.As(err, &fault) {
				return nil, err
			}
			// InvalidOrder from a misconfigured strategy insert: skip it,
			// the book is unchanged for this order.
			continue
		}
		s.fills = append(s.fills, fills...)
		for _, f := range fills {
			s.inventory = s.inventory.Add(inventoryDelta(f, takerSide))
		}
		if order.RemainingSize.GreaterThan(fpdecimal.Zero) && !order.IOC {
			s.openQuotes[order.ID] = strategy.OpenQuote{
				OrderID: order.ID,
				Side:    order.Side,
				Price:   order.Price,
				Size:    order.RemainingSize,
			}
		}
	}

	return s.fills[before:], nil
}

// inventoryDelta computes the strategy's net position change from one
// fill, given the side of the order that was Submitted (the taker in
// that call). The maker's side is always the opposite of the taker's,
// since Submit only ever matches against the opposite side of the book.
func inventoryDelta(f core.Fill, takerSide core.Side) fpdecimal.Decimal {
	delta := fpdecimal.Zero
	if f.TakerOrigin == core.Maker {
		delta = delta.Add(signedSize(takerSide, f.Size))
	}
	if f.MakerOrigin == core.Maker {
		delta = delta.Add(signedSize(takerSide.Opposite(), f.Size))
	}
	return delta
}

func signedSize(side core.Side, size fpdecimal.Decimal) fpdecimal.Decimal {
	if side == core.Buy {
		return size
	}
	return fpdecimal.Zero.Sub(size)
}

func (s *Simulator) applyDepthDelta(ev Event) error {
	key := ev.Price.String()
	prev, ok := s.exchangeAgg[ev.Side][key]
	if !ok {
		prev = fpdecimal.Zero
	}
	delta := ev.Aggregate.Sub(prev)
	s.exchangeAgg[ev.Side][key] = ev.Aggregate

	switch {
	case delta.GreaterThan(fpdecimal.Zero):
		s.exchangeSeq++
		id := fmt.Sprintf("exch-%d", s.exchangeSeq)
		return s.book.InsertExchangeLiquidity(id, ev.Side, ev.Price, delta, ev.TS)
	case delta.LessThan(fpdecimal.Zero):
		s.book.ReduceExchangeAtLevel(ev.Side, ev.Price, fpdecimal.Zero.Sub(delta))
	}
	return nil
}

func (s *Simulator) applyTrade(ctx context.Context, ev Event) error {
	taker, err := core.NewOrder(fmt.Sprintf("trade-%d", s.clock), ev.Side, ev.Price, ev.Size, core.Exchange, true, ev.TS)
	if err != nil {
		return core.NewProtocolError(err)
	}
	fills, err := s.engine.Submit(ctx, taker)
	if err != nil {
		var fault *core.EngineFault
		if errors.As(err, &fault) {
			return err
		}
		return core.NewProtocolError(err)
	}
	s.fills = append(s.fills, fills...)
	for _, f := range fills {
		s.inventory = s.inventory.Add(inventoryDelta(f, ev.Side))
	}
	return nil
}
