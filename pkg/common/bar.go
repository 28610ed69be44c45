package common

import (
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

// Bar is an OHLC summary of the quote mid-prices that fell inside one
// fixed window [StartTs, EndTs).
type Bar struct {
	Open    fixed.Point `json:"open"`
	High    fixed.Point `json:"high"`
	Low     fixed.Point `json:"low"`
	Close   fixed.Point `json:"close"`
	StartTs Millis      `json:"startTs"`
	EndTs   Millis      `json:"endTs"`
	Count   Count       `json:"count"`
}
