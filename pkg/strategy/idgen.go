package strategy

import (
	"fmt"
	"sync/atomic"

	"github.com/orderflow/matchingo/pkg/core"
)

// IDGenerator mints unique, deterministic maker order ids of the form
// "<prefix>-<side>-<counter>" so replay runs stay reproducible (no
// wall-clock reads in the hot path, P7).
type IDGenerator struct {
	prefix  string
	counter int64
}

// NewIDGenerator constructs an IDGenerator namespaced by prefix.
func NewIDGenerator(prefix string) *IDGenerator {
	return &IDGenerator{prefix: prefix}
}

// Next returns the next id for side.
func (g *IDGenerator) Next(side core.Side) string {
	n := atomic.AddInt64(&g.counter, 1)
	return fmt.Sprintf("%s-%s-%d", g.prefix, side, n)
}
