package order

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/common"
)

// Manager turns signals into orders. A signal with an unknown side is
// dropped, a signal without a positive quantity falls back to the
// configured default.
type Manager struct {
	router     *bus.Router
	defaultQty common.Quantity
}

func NewManager(router *bus.Router, defaultQty common.Quantity) *Manager {
	return &Manager{
		router:     router,
		defaultQty: defaultQty,
	}
}

func (m *Manager) OnEvent(ctx context.Context, e common.Event) {
	if e.Type != common.TypeSignal {
		return
	}

	signal, ok := e.Data.(common.Signal)
	if !ok {
		slog.Warn("malformed signal payload, skipping", "event", e)
		return
	}

	if !signal.Side.Valid() {
		slog.Warn("invalid signal side, dropping signal", "side", signal.Side, "symbol", e.Symbol)
		return
	}

	qty := signal.Qty
	if qty <= 0 {
		qty = m.defaultQty
	}

	m.router.Publish(ctx, common.NewEvent(common.TypeOrder, e.Symbol, e.TimeStamp, common.Order{
		OrderID: uuid.NewString(),
		Side:    signal.Side,
		Qty:     qty,
		Symbol:  e.Symbol,
		Ts:      e.TimeStamp,
	}))
}
