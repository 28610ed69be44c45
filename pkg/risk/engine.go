package risk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/common"
)

// Engine gates orders against a per-order quantity limit and a per-symbol
// position limit. The position ledger is advanced by fills only, never by
// acceptance, so a rejected order leaves no state to roll back. The ledger
// is private to this component; accounting keeps its own.
type Engine struct {
	router *bus.Router

	maxOrderQty    common.Quantity
	maxPositionQty common.Quantity

	positions map[string]common.Quantity
}

func NewEngine(router *bus.Router, maxOrderQty, maxPositionQty common.Quantity) *Engine {
	return &Engine{
		router:         router,
		maxOrderQty:    maxOrderQty,
		maxPositionQty: maxPositionQty,
		positions:      make(map[string]common.Quantity),
	}
}

func (e *Engine) OnEvent(ctx context.Context, ev common.Event) {
	switch ev.Type {
	case common.TypeOrder:
		e.onOrder(ctx, ev)
	case common.TypeFill:
		e.onFill(ev)
	}
}

// Position returns the fill-confirmed signed position for a symbol.
func (e *Engine) Position(symbol string) common.Quantity {
	return e.positions[symbol]
}

func (e *Engine) onOrder(ctx context.Context, ev common.Event) {
	order, ok := ev.Data.(common.Order)
	if !ok {
		slog.Warn("malformed order payload, skipping", "event", ev)
		return
	}

	if order.Qty > e.maxOrderQty {
		e.reject(ctx, ev, order, fmt.Sprintf("qty %d exceeds max order qty %d", order.Qty, e.maxOrderQty))
		return
	}

	projected := e.positions[order.Symbol] + order.Qty*common.Quantity(order.Side.Sign())
	if projected.Abs() > e.maxPositionQty {
		e.reject(ctx, ev, order, fmt.Sprintf("position would reach %d, max position qty is %d", projected, e.maxPositionQty))
		return
	}

	e.router.Publish(ctx, common.NewEvent(common.TypeOrderAccepted, ev.Symbol, ev.TimeStamp, order))
}

func (e *Engine) onFill(ev common.Event) {
	fill, ok := ev.Data.(common.Fill)
	if !ok {
		slog.Warn("malformed fill payload, skipping", "event", ev)
		return
	}

	e.positions[ev.Symbol] += fill.Qty * common.Quantity(fill.Side.Sign())
}

func (e *Engine) reject(ctx context.Context, ev common.Event, order common.Order, reason string) {
	slog.Debug("order rejected", "order_id", order.OrderID, "reason", reason)

	e.router.Publish(ctx, common.NewEvent(common.TypeReject, ev.Symbol, ev.TimeStamp, common.Reject{
		OrderID: order.OrderID,
		Reason:  reason,
	}))
}
