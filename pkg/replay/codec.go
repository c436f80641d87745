package replay

import (
	"encoding/json"
	"fmt"

	"github.com/nikolaydubina/fpdecimal"

	"github.com/orderflow/matchingo/pkg/core"
)

// wireEvent is the JSON encoding of an Event, per the event input
// schema: decimal fields are carried as strings to avoid float
// round-trip loss.
type wireEvent struct {
	TS        int64  `json:"ts"`
	Kind      string `json:"kind"`
	Side      string `json:"side"`
	Price     string `json:"price,omitempty"`
	Size      string `json:"size,omitempty"`
	Aggregate string `json:"aggregate,omitempty"`
}

// EncodeEventJSON renders ev in the wire schema shared by package feed
// and the backtest file source.
func EncodeEventJSON(ev Event) ([]byte, error) {
	w := wireEvent{TS: ev.TS, Kind: ev.Kind.String()}
	if ev.Kind == EventDepthDelta || ev.Kind == EventTrade {
		w.Side = ev.Side.String()
	}
	if ev.Kind == EventDepthDelta {
		w.Price = ev.Price.String()
		w.Aggregate = ev.Aggregate.String()
	}
	if ev.Kind == EventTrade {
		w.Price = ev.Price.String()
		w.Size = ev.Size.String()
	}
	return json.Marshal(w)
}

// DecodeEventJSON parses data in the wire schema into an Event. It is
// shared by package feed's Kafka source and the backtest file source
// so the two never drift in how they interpret the same recording.
func DecodeEventJSON(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, fmt.Errorf("replay: decode event: %w", err)
	}

	kind, err := parseKind(w.Kind)
	if err != nil {
		return Event{}, err
	}

	ev := Event{TS: w.TS, Kind: kind}

	if w.Side != "" {
		side, err := parseSide(w.Side)
		if err != nil {
			return Event{}, err
		}
		ev.Side = side
	}
	if w.Price != "" {
		p, err := fpdecimal.FromString(w.Price)
		if err != nil {
			return Event{}, fmt.Errorf("replay: price: %w", err)
		}
		ev.Price = p
	}
	if w.Size != "" {
		s, err := fpdecimal.FromString(w.Size)
		if err != nil {
			return Event{}, fmt.Errorf("replay: size: %w", err)
		}
		ev.Size = s
	}
	if w.Aggregate != "" {
		a, err := fpdecimal.FromString(w.Aggregate)
		if err != nil {
			return Event{}, fmt.Errorf("replay: aggregate: %w", err)
		}
		ev.Aggregate = a
	}

	return ev, nil
}

func parseKind(s string) (EventKind, error) {
	switch s {
	case "depth":
		return EventDepthDelta, nil
	case "trade":
		return EventTrade, nil
	case "tick":
		return EventTick, nil
	default:
		return 0, fmt.Errorf("replay: unknown event kind %q", s)
	}
}

func parseSide(s string) (core.Side, error) {
	switch s {
	case "buy":
		return core.Buy, nil
	case "sell":
		return core.Sell, nil
	default:
		return 0, fmt.Errorf("replay: unknown side %q", s)
	}
}
