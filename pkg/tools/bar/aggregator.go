package bar

import (
	"context"
	"log/slog"
	"sort"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

type window struct {
	open    fixed.Point
	high    fixed.Point
	low     fixed.Point
	close   fixed.Point
	startTs common.Millis
	count   common.Count
}

// Aggregator rolls mid-price quotes into fixed-duration OHLC bars, one
// open window per symbol. Windows tile the timeline: when a quote reaches
// a window's end boundary the closed bar is emitted and the next window is
// anchored at that boundary, not at the quote's timestamp.
type Aggregator struct {
	router   *bus.Router
	duration common.Millis
	windows  map[string]*window
}

func NewAggregator(router *bus.Router, duration common.Millis) *Aggregator {
	if duration <= 0 {
		panic("bar duration must be positive")
	}

	return &Aggregator{
		router:   router,
		duration: duration,
		windows:  make(map[string]*window),
	}
}

func (a *Aggregator) OnEvent(ctx context.Context, ev common.Event) {
	if ev.Type != common.TypeQuote {
		return
	}

	quote, ok := ev.Data.(common.Quote)
	if !ok {
		slog.Warn("malformed quote payload, skipping", "event", ev)
		return
	}

	mid := quote.Mid()

	w, ok := a.windows[ev.Symbol]
	if !ok {
		a.windows[ev.Symbol] = newWindow(mid, ev.TimeStamp)
		return
	}

	if ev.TimeStamp < w.startTs+a.duration {
		if mid.Gt(w.high) {
			w.high = mid
		}
		if mid.Lt(w.low) {
			w.low = mid
		}
		w.close = mid
		w.count++
		return
	}

	endTs := w.startTs + a.duration
	a.emit(ctx, ev.Symbol, w, endTs)
	a.windows[ev.Symbol] = newWindow(mid, endTs)
}

// Flush emits every open window with the supplied timestamp as its end
// and clears all window state. Symbols are flushed in sorted order so the
// emission sequence is reproducible. A second flush is a no-op.
func (a *Aggregator) Flush(ctx context.Context, ts common.Millis) {
	symbols := make([]string, 0, len(a.windows))
	for symbol := range a.windows {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		a.emit(ctx, symbol, a.windows[symbol], ts)
	}

	a.windows = make(map[string]*window)
}

func newWindow(mid fixed.Point, startTs common.Millis) *window {
	return &window{
		open:    mid,
		high:    mid,
		low:     mid,
		close:   mid,
		startTs: startTs,
		count:   1,
	}
}

func (a *Aggregator) emit(ctx context.Context, symbol string, w *window, endTs common.Millis) {
	a.router.Publish(ctx, common.NewEvent(common.TypeBar, symbol, endTs, common.Bar{
		Open:    w.open,
		High:    w.high,
		Low:     w.low,
		Close:   w.close,
		StartTs: w.startTs,
		EndTs:   endTs,
		Count:   w.count,
	}))
}
