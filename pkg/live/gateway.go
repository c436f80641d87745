package live

import (
	"context"

	"github.com/nikolaydubina/fpdecimal"

	"github.com/orderflow/matchingo/pkg/core"
)

// OrderPlacer is the exchange gateway collaborator: it reports fill
// confirmations observed on the venue side and cancels everything
// resting there, out-of-band from the local matching engine. Adapted
// from the teacher's pkg/marketmaker/interfaces.go OrderPlacer, dropping
// its gRPC/protobuf request types since no gRPC service survives here —
// the wire protocol to a real venue is a Non-goal, so this interface is
// the whole of the gateway's shape.
type OrderPlacer interface {
	// PollFills returns fill confirmations observed since the last call.
	PollFills(ctx context.Context) ([]GatewayFill, error)
	// CancelAll cancels every order resting on the venue.
	CancelAll(ctx context.Context) error
	Close() error
}

// GatewayFill is one fill confirmation as reported by the gateway. It
// carries Side explicitly, unlike core.Fill, because a Fill alone
// doesn't say which side of it was this venue's own order.
type GatewayFill struct {
	OrderID string
	Side    core.Side
	Size    fpdecimal.Decimal
	Price   fpdecimal.Decimal
}

// NoopOrderPlacer is a stub gateway for paper trading and tests: no
// venue exists to poll or cancel against, so it reports no fills and
// treats cancel-all as trivially satisfied.
type NoopOrderPlacer struct{}

func (NoopOrderPlacer) PollFills(ctx context.Context) ([]GatewayFill, error) { return nil, nil }
func (NoopOrderPlacer) CancelAll(ctx context.Context) error                 { return nil }
func (NoopOrderPlacer) Close() error                                        { return nil }

func gatewaySignedSize(side core.Side, size fpdecimal.Decimal) fpdecimal.Decimal {
	if side == core.Buy {
		return size
	}
	return fpdecimal.Zero.Sub(size)
}
