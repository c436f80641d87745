// Package strategy defines the Quoting Strategy capability and its two
// reference implementations: a naive fixed-spread quoter and an
// expected-value maximizer with inventory skew.
package strategy

import (
	"github.com/nikolaydubina/fpdecimal"

	"github.com/orderflow/matchingo/pkg/core"
	"github.com/orderflow/matchingo/pkg/features"
)

// OpenQuote is an immutable snapshot of one of the strategy's own
// resting orders, as seen by the caller driving OnStep.
type OpenQuote struct {
	OrderID string
	Side    core.Side
	Price   fpdecimal.Decimal
	Size    fpdecimal.Decimal
}

// QuoteAction is what a Strategy returns from OnStep: cancels run
// before inserts within the same step (§4.3 step 6).
type QuoteAction struct {
	Cancels []string
	Inserts []*core.Order
}

// Empty reports whether the action does nothing, letting the caller
// skip a no-op step cheaply.
func (a QuoteAction) Empty() bool { return len(a.Cancels) == 0 && len(a.Inserts) == 0 }

// Strategy is a capability, not a concrete class: any type exposing
// OnStep can drive the quoting loop without book-layer knowledge.
type Strategy interface {
	OnStep(snap features.Snapshot, inventory fpdecimal.Decimal, openQuotes []OpenQuote, clockNanos int64) QuoteAction
}
