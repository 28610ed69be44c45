package bar

import (
	"context"
	"testing"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

func newAggregatorHarness(duration common.Millis) (*bus.Router, *Aggregator, *[]common.Event) {
	r := bus.NewRouter()
	a := NewAggregator(r, duration)
	var bars []common.Event
	r.Subscribe(a.OnEvent)
	r.Subscribe(func(ctx context.Context, e common.Event) {
		if e.Type == common.TypeBar {
			bars = append(bars, e)
		}
	})
	return r, a, &bars
}

func publishMid(r *bus.Router, symbol string, ts common.Millis, mid float64) {
	r.Publish(context.Background(), common.NewEvent(common.TypeQuote, symbol, ts, common.Quote{
		Bid:       fixed.FromFloat64(mid - 1),
		Ask:       fixed.FromFloat64(mid + 1),
		Symbol:    symbol,
		TimeStamp: ts,
	}))
}

func TestBarAggregator_WindowsTileFromFirstQuote(t *testing.T) {
	r, a, bars := newAggregatorHarness(1000)

	for _, ts := range []common.Millis{0, 300, 700, 1300} {
		publishMid(r, "ACME", ts, 100)
	}

	if len(*bars) != 1 {
		t.Fatalf("Expected 1 bar, got %d", len(*bars))
	}

	bar := (*bars)[0].Data.(common.Bar)
	if bar.StartTs != 0 || bar.EndTs != 1000 {
		t.Errorf("Expected window [0,1000), got [%d,%d)", bar.StartTs, bar.EndTs)
	}
	if bar.Count != 3 {
		t.Errorf("Expected count 3, got %d", bar.Count)
	}

	// The 1300 quote must live in the window anchored at 1000.
	a.Flush(context.Background(), 1500)

	if len(*bars) != 2 {
		t.Fatalf("Expected 2 bars after flush, got %d", len(*bars))
	}
	second := (*bars)[1].Data.(common.Bar)
	if second.StartTs != 1000 || second.EndTs != 1500 {
		t.Errorf("Expected window [1000,1500), got [%d,%d)", second.StartTs, second.EndTs)
	}
	if second.Count != 1 {
		t.Errorf("Expected count 1, got %d", second.Count)
	}
}

func TestBarAggregator_Ohlc(t *testing.T) {
	r, a, bars := newAggregatorHarness(1000)

	mids := []struct {
		ts  common.Millis
		mid float64
	}{
		{0, 100}, {100, 105}, {200, 95}, {300, 102},
	}
	for _, m := range mids {
		publishMid(r, "ACME", m.ts, m.mid)
	}

	a.Flush(context.Background(), 400)

	if len(*bars) != 1 {
		t.Fatalf("Expected 1 bar, got %d", len(*bars))
	}

	bar := (*bars)[0].Data.(common.Bar)
	if !bar.Open.Eq(fixed.FromFloat64(100)) {
		t.Errorf("Expected open 100, got %s", bar.Open)
	}
	if !bar.High.Eq(fixed.FromFloat64(105)) {
		t.Errorf("Expected high 105, got %s", bar.High)
	}
	if !bar.Low.Eq(fixed.FromFloat64(95)) {
		t.Errorf("Expected low 95, got %s", bar.Low)
	}
	if !bar.Close.Eq(fixed.FromFloat64(102)) {
		t.Errorf("Expected close 102, got %s", bar.Close)
	}
	if bar.Count != 4 {
		t.Errorf("Expected count 4, got %d", bar.Count)
	}
}

func TestBarAggregator_BoundaryQuoteClosesWindow(t *testing.T) {
	r, _, bars := newAggregatorHarness(1000)

	publishMid(r, "ACME", 0, 100)
	publishMid(r, "ACME", 1000, 101)

	if len(*bars) != 1 {
		t.Fatalf("Expected the boundary quote to close the window, got %d bars", len(*bars))
	}
	bar := (*bars)[0].Data.(common.Bar)
	if bar.EndTs != 1000 || bar.Count != 1 {
		t.Errorf("Expected [0,1000) count 1, got [%d,%d) count %d", bar.StartTs, bar.EndTs, bar.Count)
	}
	if !bar.Close.Eq(fixed.FromFloat64(100)) {
		t.Errorf("Boundary quote leaked into the closed bar, close=%s", bar.Close)
	}
}

func TestBarAggregator_NextWindowAnchoredAtBoundary(t *testing.T) {
	r, _, bars := newAggregatorHarness(1000)

	publishMid(r, "ACME", 0, 100)
	publishMid(r, "ACME", 2500, 110)
	publishMid(r, "ACME", 2600, 111)

	// The 2500 quote seeds the window anchored at 1000, so the 2600
	// quote lies past that window's end and closes it.
	if len(*bars) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(*bars))
	}
	second := (*bars)[1].Data.(common.Bar)
	if second.StartTs != 1000 || second.EndTs != 2000 {
		t.Errorf("Expected window [1000,2000), got [%d,%d)", second.StartTs, second.EndTs)
	}
	if second.Count != 1 || !second.Open.Eq(fixed.FromFloat64(110)) {
		t.Errorf("Expected the 2500 quote to seed the window, got count %d open %s", second.Count, second.Open)
	}
}

func TestBarAggregator_SymbolsIndependent(t *testing.T) {
	r, _, bars := newAggregatorHarness(1000)

	publishMid(r, "ACME", 0, 100)
	publishMid(r, "GLOBEX", 800, 50)
	publishMid(r, "ACME", 1200, 101)

	// Only the ACME window has rolled over.
	if len(*bars) != 1 {
		t.Fatalf("Expected 1 bar, got %d", len(*bars))
	}
	if (*bars)[0].Symbol != "ACME" {
		t.Errorf("Expected ACME bar, got %s", (*bars)[0].Symbol)
	}
	bar := (*bars)[0].Data.(common.Bar)
	if bar.StartTs != 0 || bar.EndTs != 1000 {
		t.Errorf("Expected window [0,1000), got [%d,%d)", bar.StartTs, bar.EndTs)
	}
}

func TestBarAggregator_FlushSortedAndIdempotent(t *testing.T) {
	r, a, bars := newAggregatorHarness(1000)

	publishMid(r, "ZORG", 0, 10)
	publishMid(r, "ACME", 100, 100)
	publishMid(r, "GLOBEX", 200, 50)

	a.Flush(context.Background(), 500)

	if len(*bars) != 3 {
		t.Fatalf("Expected 3 bars, got %d", len(*bars))
	}
	wantOrder := []string{"ACME", "GLOBEX", "ZORG"}
	for i, want := range wantOrder {
		if got := (*bars)[i].Symbol; got != want {
			t.Errorf("Flush emission %d = %s; want %s", i, got, want)
		}
		if got := (*bars)[i].Data.(common.Bar).EndTs; got != 500 {
			t.Errorf("Expected flush end ts 500, got %d", got)
		}
	}

	a.Flush(context.Background(), 600)

	if len(*bars) != 3 {
		t.Errorf("Expected second flush to emit nothing, got %d bars", len(*bars))
	}
}

func TestBarAggregator_StateClearedAfterFlush(t *testing.T) {
	r, a, bars := newAggregatorHarness(1000)

	publishMid(r, "ACME", 0, 100)
	a.Flush(context.Background(), 500)

	// A quote after the flush starts a fresh first window at its own ts.
	publishMid(r, "ACME", 2000, 105)
	a.Flush(context.Background(), 2500)

	if len(*bars) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(*bars))
	}
	second := (*bars)[1].Data.(common.Bar)
	if second.StartTs != 2000 || second.EndTs != 2500 {
		t.Errorf("Expected window [2000,2500), got [%d,%d)", second.StartTs, second.EndTs)
	}
}

func TestBarAggregator_InvalidDurationPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for non-positive duration")
		}
	}()

	NewAggregator(bus.NewRouter(), 0)
}
