package capture

import (
	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

// BinaryQuote is the fixed-width on-disk record. Field order and types
// must not change, readers map the file directly.
type BinaryQuote struct {
	TimeStamp int64
	Bid       float64
	Ask       float64
	BidSize   int64
	AskSize   int64
}

func FromQuote(quote common.Quote) BinaryQuote {
	bid, _ := quote.Bid.Float64()
	ask, _ := quote.Ask.Float64()
	return BinaryQuote{
		TimeStamp: int64(quote.TimeStamp),
		Bid:       bid,
		Ask:       ask,
		BidSize:   int64(quote.BidSize),
		AskSize:   int64(quote.AskSize),
	}
}

func (b BinaryQuote) ToQuote(symbol string) common.Quote {
	return common.Quote{
		Bid:       fixed.FromFloat64(b.Bid),
		Ask:       fixed.FromFloat64(b.Ask),
		BidSize:   common.Quantity(b.BidSize),
		AskSize:   common.Quantity(b.AskSize),
		Symbol:    symbol,
		TimeStamp: common.Millis(b.TimeStamp),
	}
}
