package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/datasource"
)

// QuoteSource streams one symbol's quotes out of a duckdb table as quote
// events. The query is opened lazily on the first Next call and rows are
// scanned one at a time, nothing is buffered up front.
type QuoteSource struct {
	reader *Reader
	symbol string
	from   common.Millis
	to     common.Millis

	rows *sql.Rows
	done bool
}

func NewQuoteSource(reader *Reader, symbol string, from, to common.Millis) *QuoteSource {
	return &QuoteSource{
		reader: reader,
		symbol: symbol,
		from:   from,
		to:     to,
	}
}

func (s *QuoteSource) Next(ctx context.Context) (common.Event, error) {
	if s.done {
		return common.Event{}, datasource.ErrEof
	}

	if s.rows == nil {
		rows, err := s.reader.queryQuotes(ctx, s.symbol, s.from, s.to)
		if err != nil {
			s.done = true
			return common.Event{}, err
		}
		s.rows = rows
	}

	if !s.rows.Next() {
		s.done = true
		err := s.rows.Err()
		_ = s.rows.Close()
		if err != nil {
			return common.Event{}, fmt.Errorf("error scanning rows: %w", err)
		}
		return common.Event{}, datasource.ErrEof
	}

	quote, err := scanQuote(s.rows, s.symbol)
	if err != nil {
		s.done = true
		_ = s.rows.Close()
		return common.Event{}, err
	}

	return common.NewEvent(common.TypeQuote, s.symbol, quote.TimeStamp, quote), nil
}

func (s *QuoteSource) Close() error {
	if s.rows == nil || s.done {
		s.done = true
		return nil
	}
	s.done = true
	return s.rows.Close()
}
