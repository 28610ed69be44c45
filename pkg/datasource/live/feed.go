package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/utility"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

// DefaultEndpoint is the binance combined stream entry point. Any server
// speaking the same envelope format works, tests point the feed at a
// local one.
const DefaultEndpoint = "wss://stream.binance.com:9443/stream"

type streamEnvelope struct {
	Stream string     `json:"stream"`
	Data   bookTicker `json:"data"`
}

type bookTicker struct {
	Symbol  string `json:"s"`
	Bid     string `json:"b"`
	BidSize string `json:"B"`
	Ask     string `json:"a"`
	AskSize string `json:"A"`
}

// Feed streams live top-of-book quotes over a websocket and publishes
// them as quote events. The read loop is the pipeline's single producer
// thread. Book ticker messages carry no exchange timestamp, so arrival
// time is stamped here at the boundary, the one place host time enters
// the stream.
type Feed struct {
	router   *bus.Router
	endpoint string
	symbols  []string
}

func NewFeed(router *bus.Router, endpoint string, symbols ...string) *Feed {
	return &Feed{
		router:   router,
		endpoint: endpoint,
		symbols:  symbols,
	}
}

// Run blocks until the context is cancelled, reconnecting with backoff
// whenever the stream drops.
func (f *Feed) Run(ctx context.Context) error {
	if len(f.symbols) == 0 {
		return fmt.Errorf("live feed requires at least one symbol")
	}

	streams := make([]string, len(f.symbols))
	for i, symbol := range f.symbols {
		streams[i] = strings.ToLower(symbol) + "@bookTicker"
	}
	url := fmt.Sprintf("%s?streams=%s", f.endpoint, strings.Join(streams, "/"))

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// One trace id per connection attempt ties the connect, ping
		// and disconnect lines of a session together in the logs.
		session := utility.CreateTraceID()
		if err := f.consume(ctx, url, session); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("live feed disconnected, retrying", "error", err, "backoff", backoff, "session", session)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (f *Feed) consume(ctx context.Context, url string, session utility.TraceID) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
	}()

	slog.Info("connected live quote feed", "endpoint", f.endpoint, "symbols", f.symbols, "session", session)

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					slog.Warn("live feed ping failed", "error", err, "session", session)
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		quote, ok := f.decode(message)
		if !ok {
			continue
		}
		f.router.Publish(ctx, common.NewEvent(common.TypeQuote, quote.Symbol, quote.TimeStamp, quote))
	}
}

func (f *Feed) decode(message []byte) (common.Quote, bool) {
	var envelope streamEnvelope
	if err := json.Unmarshal(message, &envelope); err != nil {
		slog.Warn("failed to decode live feed message", "error", err)
		return common.Quote{}, false
	}

	bid, err := fixed.Parse(envelope.Data.Bid)
	if err != nil {
		slog.Warn("invalid bid from live feed", "error", err)
		return common.Quote{}, false
	}
	ask, err := fixed.Parse(envelope.Data.Ask)
	if err != nil {
		slog.Warn("invalid ask from live feed", "error", err)
		return common.Quote{}, false
	}
	bidSize, err := strconv.ParseFloat(envelope.Data.BidSize, 64)
	if err != nil {
		slog.Warn("invalid bid size from live feed", "error", err)
		return common.Quote{}, false
	}
	askSize, err := strconv.ParseFloat(envelope.Data.AskSize, 64)
	if err != nil {
		slog.Warn("invalid ask size from live feed", "error", err)
		return common.Quote{}, false
	}

	symbol := strings.ToUpper(envelope.Data.Symbol)
	return common.Quote{
		Bid:       bid,
		Ask:       ask,
		BidSize:   common.Quantity(bidSize),
		AskSize:   common.Quantity(askSize),
		Symbol:    symbol,
		TimeStamp: common.Millis(time.Now().UnixMilli()),
	}, true
}
