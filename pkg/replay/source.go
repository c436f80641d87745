package replay

import (
	"context"
	"errors"
)

// ErrSourceExhausted is returned by Source.Next once the stream is
// drained, distinct from any transport-level error.
var ErrSourceExhausted = errors.New("replay: event source exhausted")

// Source is an iterator of timestamped events, delivered in
// non-decreasing ts. Out-of-order records are the Simulator's job to
// reject with ProtocolError, not the Source's.
type Source interface {
	Next(ctx context.Context) (Event, error)
}

// SliceSource replays a fixed, in-memory slice of events — used for
// fixtures and deterministic tests. A Kafka-backed Source lives in
// package feed.
type SliceSource struct {
	events []Event
	pos    int
}

// NewSliceSource constructs a Source over events, replayed in order.
func NewSliceSource(events []Event) *SliceSource {
	return &SliceSource{events: events}
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	default:
	}
	if s.pos >= len(s.events) {
		return Event{}, ErrSourceExhausted
	}
	e := s.events[s.pos]
	s.pos++
	return e, nil
}
