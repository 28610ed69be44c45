package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/common"
)

type Telemetry struct {
	logger *zap.Logger

	quoteEventCounter         int64
	barEventCounter           int64
	signalEventCounter        int64
	orderEventCounter         int64
	orderAcceptedEventCounter int64
	rejectEventCounter        int64
	fillEventCounter          int64
	stateEventCounter         int64
}

func NewTelemetry(logger *zap.Logger) *Telemetry {
	return &Telemetry{
		logger: logger,
	}
}

func (t *Telemetry) With(handler bus.Handler) bus.Handler {
	return func(ctx context.Context, e common.Event) {
		switch e.Type {
		case common.TypeQuote:
			t.quoteEventCounter++
		case common.TypeBar:
			t.barEventCounter++
		case common.TypeSignal:
			t.signalEventCounter++
		case common.TypeOrder:
			t.orderEventCounter++
		case common.TypeOrderAccepted:
			t.orderAcceptedEventCounter++
		case common.TypeReject:
			t.rejectEventCounter++
		case common.TypeFill:
			t.fillEventCounter++
		case common.TypeState:
			t.stateEventCounter++
		}
		handler(ctx, e)
	}
}

func (t *Telemetry) PrintStatistics() {
	t.logger.Info("event statistics",
		zap.Int64("quote_events", t.quoteEventCounter),
		zap.Int64("bar_events", t.barEventCounter),
		zap.Int64("signal_events", t.signalEventCounter),
		zap.Int64("order_events", t.orderEventCounter),
		zap.Int64("order_accepted_events", t.orderAcceptedEventCounter),
		zap.Int64("reject_events", t.rejectEventCounter),
		zap.Int64("fill_events", t.fillEventCounter),
		zap.Int64("state_events", t.stateEventCounter))
}
