package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

// Reader loads historical quotes from a duckdb database. Each symbol lives
// in its own table named <symbol>_quotes with columns ts, bid, ask,
// bid_size and ask_size.
type Reader struct {
	dataSourceName string
	db             *sql.DB
}

func NewReader(dataSourceName string) *Reader {
	return &Reader{
		dataSourceName: dataSourceName,
	}
}

func (r *Reader) Connect() error {
	db, err := sql.Open("duckdb", r.dataSourceName)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	r.db = db
	return nil
}

func (r *Reader) Close() {
	_ = r.db.Close()
}

// LoadQuotes streams quotes for symbol in [from, to] through handler in
// ascending timestamp order. A handler error stops the scan and is
// returned wrapped.
func (r *Reader) LoadQuotes(ctx context.Context, symbol string, from, to common.Millis, handler func(quote common.Quote) error) error {

	rows, err := r.queryQuotes(ctx, symbol, from, to)
	if err != nil {
		return err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	for rows.Next() {
		quote, err := scanQuote(rows, symbol)
		if err != nil {
			return err
		}
		if err := handler(quote); err != nil {
			return fmt.Errorf("error processing quote: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error scanning rows: %w", err)
	}

	return nil
}

func (r *Reader) queryQuotes(ctx context.Context, symbol string, from, to common.Millis) (*sql.Rows, error) {
	query := fmt.Sprintf(
		`SELECT ts, bid, ask, bid_size, ask_size FROM %s_quotes WHERE ts BETWEEN ? AND ? ORDER BY ts`,
		strings.ToLower(symbol))

	rows, err := r.db.QueryContext(ctx, query,
		time.UnixMilli(int64(from)).UTC(), time.UnixMilli(int64(to)).UTC())
	if err != nil {
		return nil, fmt.Errorf("error preparing query: %w", err)
	}
	return rows, nil
}

func scanQuote(rows *sql.Rows, symbol string) (common.Quote, error) {
	var (
		ts               time.Time
		bid, ask         float64
		bidSize, askSize int64
	)
	if err := rows.Scan(&ts, &bid, &ask, &bidSize, &askSize); err != nil {
		return common.Quote{}, fmt.Errorf("error scanning row: %w", err)
	}

	return common.Quote{
		Bid:       fixed.FromFloat64(bid),
		Ask:       fixed.FromFloat64(ask),
		BidSize:   common.Quantity(bidSize),
		AskSize:   common.Quantity(askSize),
		Symbol:    symbol,
		TimeStamp: common.Millis(ts.UnixMilli()),
	}, nil
}
