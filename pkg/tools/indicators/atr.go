package indicators

import (
	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

// ATR tracks the Wilder-smoothed average true range of a bar stream. The
// first bar only seeds the previous close, the second produces the first
// reading.
type ATR struct {
	window int

	lastClose fixed.Point
	seeded    bool

	tr    fixed.Point
	atr   fixed.Point
	ready bool
}

func NewATR(window int) *ATR {
	if window < 1 {
		panic("atr window must be positive")
	}
	return &ATR{window: window}
}

func (a *ATR) OnBar(bar common.Bar) {
	defer func() {
		a.lastClose = bar.Close
		a.seeded = true
	}()

	if !a.seeded {
		return
	}

	tr := bar.High.Sub(bar.Low).Abs()
	if hc := bar.High.Sub(a.lastClose).Abs(); hc.Gt(tr) {
		tr = hc
	}
	if lc := bar.Low.Sub(a.lastClose).Abs(); lc.Gt(tr) {
		tr = lc
	}
	a.tr = tr

	if !a.ready {
		a.atr = tr
		a.ready = true
		return
	}
	a.atr = a.atr.MulInt(a.window - 1).Add(tr).DivInt(a.window)
}

func (a *ATR) TrueRange() fixed.Point {
	return a.tr
}

func (a *ATR) AverageTrueRange() fixed.Point {
	return a.atr
}

func (a *ATR) Ready() bool {
	return a.ready
}

func (a *ATR) Reset() {
	a.lastClose = fixed.Zero
	a.seeded = false
	a.tr = fixed.Zero
	a.atr = fixed.Zero
	a.ready = false
}
