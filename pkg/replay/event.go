// Package replay implements the Replay Simulator: a strictly
// single-threaded, deterministic driver of the Book Store, Matching
// Engine, Feature Extractor, and Quoting Strategy over a recorded
// book-event stream.
package replay

import (
	"github.com/nikolaydubina/fpdecimal"

	"github.com/orderflow/matchingo/pkg/core"
)

// EventKind tags the three event variants the simulator consumes.
type EventKind int

const (
	// EventDepthDelta reports the venue's new aggregate resting size at
	// (side, price).
	EventDepthDelta EventKind = iota
	// EventTrade reports a taker consuming resting liquidity on side.
	EventTrade
	// EventTick is a pure clock advance with no book mutation.
	EventTick
)

func (k EventKind) String() string {
	switch k {
	case EventDepthDelta:
		return "depth"
	case EventTrade:
		return "trade"
	case EventTick:
		return "tick"
	default:
		return "unknown"
	}
}

// Event is one record of the book-event stream (collaborator → core),
// per §6's event input schema.
type Event struct {
	TS        int64
	Kind      EventKind
	Side      core.Side
	Price     fpdecimal.Decimal
	Size      fpdecimal.Decimal
	Aggregate fpdecimal.Decimal
}
