package portfolio

import (
	"context"
	"log/slog"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

type position struct {
	qty     common.Quantity
	avgCost fixed.Point
}

// Tracker books fills into cash, positions and realized P&L, and marks
// open positions against the last cached mid-price. Fills are the only
// mutating input; quotes only refresh the marks. The position ledger here
// is independent of the risk ledger on purpose, limits and accounting
// must not feed each other.
//
// Cost basis follows the weighted-average convention: adding to a
// position in the same direction re-averages, trading against it realizes
// (price − avgCost) on the full fill quantity and leaves the average
// untouched unless the position closes (entry removed) or flips (average
// resets to the fill price).
type Tracker struct {
	router        *bus.Router
	snapshotEvery common.Count

	cash      fixed.Point
	realized  fixed.Point
	fillCount common.Count

	positions map[string]*position
	mids      map[string]fixed.Point
}

// NewTracker starts an account with the given cash. A snapshotEvery of N
// emits a state snapshot after every N-th fill, 0 disables periodic
// snapshots entirely.
func NewTracker(router *bus.Router, initialCash fixed.Point, snapshotEvery common.Count) *Tracker {
	return &Tracker{
		router:        router,
		snapshotEvery: snapshotEvery,
		cash:          initialCash,
		realized:      fixed.Zero,
		positions:     make(map[string]*position),
		mids:          make(map[string]fixed.Point),
	}
}

func (t *Tracker) OnEvent(ctx context.Context, ev common.Event) {
	switch ev.Type {
	case common.TypeQuote:
		t.onQuote(ev)
	case common.TypeFill:
		t.onFill(ctx, ev)
	}
}

// FlushState emits a snapshot unconditionally, stamped with the supplied
// timestamp. Account state survives the flush, there is nothing to clear.
func (t *Tracker) FlushState(ctx context.Context, ts common.Millis) {
	t.publishState(ctx, ts)
}

func (t *Tracker) onQuote(ev common.Event) {
	quote, ok := ev.Data.(common.Quote)
	if !ok {
		slog.Warn("malformed quote payload, skipping", "event", ev)
		return
	}

	t.mids[ev.Symbol] = quote.Mid()
}

func (t *Tracker) onFill(ctx context.Context, ev common.Event) {
	fill, ok := ev.Data.(common.Fill)
	if !ok {
		slog.Warn("malformed fill payload, skipping", "event", ev)
		return
	}

	notional := fill.Price.MulInt64(int64(fill.Qty))
	if fill.Side == common.SideBuy {
		t.cash = t.cash.Sub(notional).Sub(fill.Fee)
	} else {
		t.cash = t.cash.Add(notional).Sub(fill.Fee)
	}

	t.apply(ev.Symbol, fill)

	t.fillCount++
	if t.snapshotEvery > 0 && t.fillCount%t.snapshotEvery == 0 {
		t.publishState(ctx, ev.TimeStamp)
	}
}

func (t *Tracker) apply(symbol string, fill common.Fill) {
	delta := fill.Qty * common.Quantity(fill.Side.Sign())

	pos, ok := t.positions[symbol]
	if !ok {
		t.positions[symbol] = &position{qty: delta, avgCost: fill.Price}
		return
	}

	oldQty := pos.qty
	newQty := oldQty + delta

	if (oldQty > 0) == (delta > 0) {
		weighted := pos.avgCost.MulInt64(int64(oldQty.Abs())).Add(fill.Price.MulInt64(int64(fill.Qty)))
		pos.avgCost = weighted.DivInt64(int64(newQty.Abs()))
		pos.qty = newQty
		return
	}

	direction := int64(1)
	if oldQty < 0 {
		direction = -1
	}
	t.realized = t.realized.Add(fill.Price.Sub(pos.avgCost).MulInt64(int64(fill.Qty) * direction))

	switch {
	case newQty == 0:
		delete(t.positions, symbol)
	case (newQty > 0) != (oldQty > 0):
		pos.qty = newQty
		pos.avgCost = fill.Price
	default:
		pos.qty = newQty
	}
}

func (t *Tracker) publishState(ctx context.Context, ts common.Millis) {
	equity := t.cash
	unrealized := fixed.Zero
	positions := make(map[string]common.PositionState, len(t.positions))

	for symbol, pos := range t.positions {
		positions[symbol] = common.PositionState{Qty: pos.qty, AvgCost: pos.avgCost}

		mid, ok := t.mids[symbol]
		if !ok {
			// No quote seen yet, the position stays unmarked.
			continue
		}
		equity = equity.Add(mid.MulInt64(int64(pos.qty)))
		unrealized = unrealized.Add(mid.Sub(pos.avgCost).MulInt64(int64(pos.qty)))
	}

	t.router.Publish(ctx, common.NewEvent(common.TypeState, "", ts, common.State{
		Cash:          t.cash,
		Equity:        equity,
		RealizedPnl:   t.realized,
		UnrealizedPnl: unrealized,
		Positions:     positions,
		FillCount:     t.fillCount,
	}))
}
