package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/common"
)

type MonitorFlags uint16

//goland:noinspection GoUnusedConst
const (
	MonitorNone MonitorFlags = 1 << iota
	MonitorAll
	MonitorQuotes
	MonitorBars
	MonitorSignals
	MonitorOrders
	MonitorOrdersAccepted
	MonitorRejects
	MonitorFills
	MonitorStates
)

// Monitor logs selected event types as they pass through the wrapped
// handler.
type Monitor struct {
	flags MonitorFlags
}

func NewMonitor(flags MonitorFlags) *Monitor {
	return &Monitor{
		flags: flags,
	}
}

func (m *Monitor) With(handler bus.Handler) bus.Handler {
	return func(ctx context.Context, e common.Event) {
		if m.flags&monitorFlag(e.Type) != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", strings.ToLower(e.Type.String()), e.Data, "symbol", e.Symbol, "ts", e.TimeStamp)
		}
		handler(ctx, e)
	}
}

func monitorFlag(t common.Type) MonitorFlags {
	switch t {
	case common.TypeQuote:
		return MonitorQuotes
	case common.TypeBar:
		return MonitorBars
	case common.TypeSignal:
		return MonitorSignals
	case common.TypeOrder:
		return MonitorOrders
	case common.TypeOrderAccepted:
		return MonitorOrdersAccepted
	case common.TypeReject:
		return MonitorRejects
	case common.TypeFill:
		return MonitorFills
	case common.TypeState:
		return MonitorStates
	default:
		return 0
	}
}
