package common

import (
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

// Quote carries the best bid and ask for a symbol. Symbol and timestamp
// duplicate the envelope so the payload stands on its own in a log line.
type Quote struct {
	Bid       fixed.Point `json:"bid"`
	Ask       fixed.Point `json:"ask"`
	BidSize   Quantity    `json:"bidSize"`
	AskSize   Quantity    `json:"askSize"`
	Symbol    string      `json:"symbol"`
	TimeStamp Millis      `json:"timestamp"`
}

// Mid is the midpoint between bid and ask.
func (q Quote) Mid() fixed.Point {
	return q.Bid.Add(q.Ask).DivInt64(2)
}
