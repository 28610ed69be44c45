package execution

import (
	"context"
	"log/slog"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

const defaultPriceDigits = 4

// Simulator fills accepted orders against the last cached quote. Buys fill
// at the ask pushed up by slippage, sells at the bid pushed down, so the
// adjustment always works against the trader. Fee and slippage cost are
// computed from the unrounded per-share values and rounded only on the
// emitted fill.
type Simulator struct {
	router *bus.Router

	slippageBps fixed.Point
	feePerShare fixed.Point
	priceDigits int

	quotes map[string]common.Quote
}

func NewSimulator(router *bus.Router, options ...Option) *Simulator {
	s := &Simulator{
		router:      router,
		slippageBps: fixed.Zero,
		feePerShare: fixed.Zero,
		priceDigits: defaultPriceDigits,
		quotes:      make(map[string]common.Quote),
	}

	for _, option := range options {
		option(s)
	}

	return s
}

func (s *Simulator) OnEvent(ctx context.Context, ev common.Event) {
	switch ev.Type {
	case common.TypeQuote:
		s.onQuote(ev)
	case common.TypeOrderAccepted:
		s.onOrderAccepted(ctx, ev)
	}
}

func (s *Simulator) onQuote(ev common.Event) {
	quote, ok := ev.Data.(common.Quote)
	if !ok {
		slog.Warn("malformed quote payload, skipping", "event", ev)
		return
	}

	s.quotes[ev.Symbol] = quote
}

func (s *Simulator) onOrderAccepted(ctx context.Context, ev common.Event) {
	order, ok := ev.Data.(common.Order)
	if !ok {
		slog.Warn("malformed order payload, skipping", "event", ev)
		return
	}

	quote, ok := s.quotes[order.Symbol]
	if !ok {
		slog.Warn("no quote cached for symbol, dropping order", "symbol", order.Symbol, "order_id", order.OrderID)
		return
	}

	base := quote.Ask
	if order.Side == common.SideSell {
		base = quote.Bid
	}

	slipPerShare := base.Mul(s.slippageBps).DivInt64(10000)
	price := base.Add(slipPerShare)
	if order.Side == common.SideSell {
		price = base.Sub(slipPerShare)
	}

	qty := fixed.FromInt64(int64(order.Qty), 0)
	fee := s.feePerShare.Mul(qty)
	slippage := slipPerShare.Mul(qty)

	s.router.Publish(ctx, common.NewEvent(common.TypeFill, order.Symbol, ev.TimeStamp, common.Fill{
		OrderID:  order.OrderID,
		Side:     order.Side,
		Qty:      order.Qty,
		Price:    price.Rescale(s.priceDigits),
		Fee:      fee.Rescale(s.priceDigits),
		Slippage: slippage.Rescale(s.priceDigits),
		Ts:       ev.TimeStamp,
	}))
}
