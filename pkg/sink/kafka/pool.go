package kafka

import (
	"fmt"
	"sync"

	"github.com/orderflow/matchingo/pkg/core"
)

// Sink is the capability FillSink provides, abstracted so the pool and
// the live loop don't depend on the concrete Kafka type.
type Sink interface {
	RecordFill(f core.Fill) error
	Close() error
}

// Pool is a fixed-size, pre-warmed set of Sinks shared across the live
// loop's concurrent callers, avoiding a dial-per-fill on the hot path.
type Pool struct {
	mu   sync.Mutex
	free chan Sink
	size int
}

// NewPool dials size FillSinks against brokers/topic and returns a Pool
// ready for concurrent use. If any dial fails, the sinks successfully
// created so far are closed and the error is returned.
func NewPool(size int, brokers []string, topic string) (*Pool, error) {
	if size <= 0 {
		size = 1
	}
	p := &Pool{free: make(chan Sink, size), size: size}
	for i := 0; i < size; i++ {
		sink, err := NewFillSink(brokers, topic)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("sink: warm pool: %w", err)
		}
		p.free <- sink
	}
	return p, nil
}

// Get removes a Sink from the pool, blocking until one is available.
func (p *Pool) Get() Sink {
	return <-p.free
}

// Put returns sink to the pool. A nil sink is ignored.
func (p *Pool) Put(sink Sink) {
	if sink == nil {
		return
	}
	select {
	case p.free <- sink:
	default:
		// Pool is at capacity (Put without a matching Get): drop the
		// extra connection rather than leak a goroutine blocking on
		// the channel.
		_ = sink.Close()
	}
}

// RecordFill borrows a Sink from the pool, records f, and returns the
// Sink to the pool. On error, the Sink is closed and dropped rather
// than returned, since a failed send often indicates a broken
// connection.
func (p *Pool) RecordFill(f core.Fill) error {
	sink := p.Get()
	if err := sink.RecordFill(f); err != nil {
		_ = sink.Close()
		return err
	}
	p.Put(sink)
	return nil
}

// Close drains and closes every Sink currently idle in the pool.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for {
		select {
		case sink := <-p.free:
			if err := sink.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		default:
			return firstErr
		}
	}
}
