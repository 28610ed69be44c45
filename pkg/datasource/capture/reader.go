package capture

import (
	"context"
	"fmt"

	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/datasource"
)

const invalidIndex = -1

// QuoteReader serves a capture file as an event source, restricted to the
// [from, to] timestamp range. Records outside the range end the stream.
type QuoteReader struct {
	source *Source

	symbol string
	from   int64
	to     int64
	idx    int64
}

func NewQuoteReader(source *Source, symbol string, from, to common.Millis) *QuoteReader {
	return &QuoteReader{
		source: source,
		symbol: symbol,
		from:   int64(from),
		to:     int64(to),
		idx:    invalidIndex,
	}
}

func (r *QuoteReader) Next(_ context.Context) (common.Event, error) {
	var record BinaryQuote

	if r.idx == invalidIndex {
		if err := r.lookupStartIndex(); err != nil {
			return common.Event{}, err
		}
	}

	if err := r.source.Read(r.idx, &record); err != nil {
		if err == datasource.ErrEof {
			return common.Event{}, datasource.ErrEof
		}
		return common.Event{}, fmt.Errorf("error reading record at index %d: %w", r.idx, err)
	}
	r.idx++

	if record.TimeStamp > r.to {
		return common.Event{}, datasource.ErrEof
	}

	quote := record.ToQuote(r.symbol)
	return common.NewEvent(common.TypeQuote, r.symbol, quote.TimeStamp, quote), nil
}

// lookupStartIndex binary-searches the first record at or after the range
// start. Capture files are written in arrival order, so timestamps are
// non-decreasing.
func (r *QuoteReader) lookupStartIndex() error {
	count, err := r.source.EntryCount()
	if err != nil {
		return err
	}
	if count == 0 {
		return datasource.ErrEof
	}

	lo, hi := int64(0), count
	for lo < hi {
		mid := lo + (hi-lo)/2

		var record BinaryQuote
		if err := r.source.Read(mid, &record); err != nil {
			return fmt.Errorf("error reading record at index %d: %w", mid, err)
		}

		if record.TimeStamp < r.from {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	if lo >= count {
		return datasource.ErrEof
	}

	r.idx = lo
	return nil
}
