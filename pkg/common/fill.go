package common

import (
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

// Fill is a simulated execution of an accepted order. Price, fee and
// slippage are rounded at emission; Ts is the timestamp of the event
// that triggered the fill, never the host clock.
type Fill struct {
	OrderID  string      `json:"orderId"`
	Side     Side        `json:"side"`
	Qty      Quantity    `json:"qty"`
	Price    fixed.Point `json:"price"`
	Fee      fixed.Point `json:"fee"`
	Slippage fixed.Point `json:"slippage"`
	Ts       Millis      `json:"ts"`
}
