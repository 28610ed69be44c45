package advisor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/utility/circular"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

type symbolTrend struct {
	closes *circular.Buffer[fixed.Point]
	above  bool
	seeded bool
}

// Strategy is a moving-average crossover advisor. It watches bar closes
// per symbol and emits a buy signal when the fast average crosses over
// the slow one, a sell signal when it crosses under. Only the flip
// triggers, staying on one side of the cross is silent.
type Strategy struct {
	router     *bus.Router
	fastWindow int
	slowWindow int
	orderQty   common.Quantity

	trends map[string]*symbolTrend
}

// NewStrategy panics unless 0 < fastWindow < slowWindow. An orderQty of
// zero leaves sizing to the order manager's default.
func NewStrategy(router *bus.Router, fastWindow, slowWindow int, orderQty common.Quantity) *Strategy {
	if fastWindow <= 0 || slowWindow <= fastWindow {
		panic("strategy windows must satisfy 0 < fast < slow")
	}
	return &Strategy{
		router:     router,
		fastWindow: fastWindow,
		slowWindow: slowWindow,
		orderQty:   orderQty,
		trends:     make(map[string]*symbolTrend),
	}
}

func (s *Strategy) OnEvent(ctx context.Context, e common.Event) {
	if e.Type != common.TypeBar {
		return
	}
	bar, ok := e.Data.(common.Bar)
	if !ok {
		slog.Warn("malformed bar payload, skipping", "event", e)
		return
	}

	trend, ok := s.trends[e.Symbol]
	if !ok {
		trend = &symbolTrend{closes: circular.NewBuffer[fixed.Point](uint(s.slowWindow))}
		s.trends[e.Symbol] = trend
	}

	trend.closes.Push(bar.Close)
	if !trend.closes.IsFull() {
		return
	}

	fast := sma(trend.closes, s.fastWindow)
	slow := sma(trend.closes, s.slowWindow)
	above := fast.Gt(slow)

	if !trend.seeded {
		trend.seeded = true
		trend.above = above
		return
	}
	if above == trend.above {
		return
	}
	trend.above = above

	side := common.SideSell
	if above {
		side = common.SideBuy
	}
	s.router.Publish(ctx, common.NewEvent(common.TypeSignal, e.Symbol, e.TimeStamp, common.Signal{
		Side:   side,
		Qty:    s.orderQty,
		Reason: fmt.Sprintf("fast sma %s crossed slow sma %s", fast, slow),
	}))
}

// sma averages the most recent window entries, index 0 being the newest.
func sma(closes *circular.Buffer[fixed.Point], window int) fixed.Point {
	sum := fixed.Zero
	for i := 0; i < window; i++ {
		sum = sum.Add(closes.Get(uint(i)))
	}
	return sum.DivInt(window)
}
