// Package indicators holds small rolling-window indicators computed over
// bar streams. They carry no bus wiring of their own, callers feed them
// from a handler.
package indicators

import (
	"github.com/peter-kozarec/solstice/pkg/utility/circular"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

// ZScore measures how far the latest point sits from the rolling window
// mean, in sample standard deviations.
type ZScore struct {
	window int
	points *circular.Buffer[fixed.Point]
}

func NewZScore(window int) *ZScore {
	if window < 2 {
		panic("zscore window must be at least 2")
	}
	return &ZScore{
		window: window,
		points: circular.NewBuffer[fixed.Point](uint(window)),
	}
}

func (z *ZScore) AddPoint(p fixed.Point) {
	z.points.Push(p)
}

func (z *ZScore) Ready() bool {
	return z.points.IsFull()
}

// Value returns zero until the window is full or while the window is
// flat.
func (z *ZScore) Value() fixed.Point {
	if !z.points.IsFull() {
		return fixed.Zero
	}

	points := make([]fixed.Point, z.window)
	for i := 0; i < z.window; i++ {
		points[i] = z.points.Get(uint(i))
	}

	mean := fixed.Mean(points)
	deviation := sampleStdDev(points, mean)
	if deviation.IsZero() {
		return fixed.Zero
	}
	return points[0].Sub(mean).Div(deviation)
}

func sampleStdDev(points []fixed.Point, mean fixed.Point) fixed.Point {
	if len(points) < 2 {
		return fixed.Zero
	}
	sum := fixed.Zero
	for _, point := range points {
		diff := point.Sub(mean)
		sum = sum.Add(diff.Mul(diff))
	}
	return sum.DivInt(len(points) - 1).Sqrt()
}
