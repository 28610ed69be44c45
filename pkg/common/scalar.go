package common

import (
	"fmt"
	"strconv"
	"strings"
)

// Millis is a moment in event time, integer milliseconds supplied by the
// producer. All time-based logic in the pipeline runs on these values.
type Millis int64

func (m *Millis) UnmarshalJSON(data []byte) error {
	v, err := tolerantInt64(data)
	if err != nil {
		return fmt.Errorf("common: millis: %w", err)
	}
	*m = Millis(v)
	return nil
}

// Quantity is a signed number of units of an instrument.
type Quantity int64

func (q *Quantity) UnmarshalJSON(data []byte) error {
	v, err := tolerantInt64(data)
	if err != nil {
		return fmt.Errorf("common: quantity: %w", err)
	}
	*q = Quantity(v)
	return nil
}

func (q Quantity) Abs() Quantity {
	if q < 0 {
		return -q
	}
	return q
}

// Count is a running tally of processed events.
type Count int64

func (c *Count) UnmarshalJSON(data []byte) error {
	v, err := tolerantInt64(data)
	if err != nil {
		return fmt.Errorf("common: count: %w", err)
	}
	*c = Count(v)
	return nil
}

// tolerantInt64 reads an integer whether the wire carried it as a JSON
// number or as a numeric string.
func tolerantInt64(data []byte) (int64, error) {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// Side is the direction of a signal, order, or fill. Values outside the
// two constants survive decoding so domain validation can observe and
// drop them.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Sign maps BUY to +1 and SELL to -1 for signed position arithmetic.
func (s Side) Sign() int64 {
	switch s {
	case SideBuy:
		return 1
	case SideSell:
		return -1
	default:
		return 0
	}
}
