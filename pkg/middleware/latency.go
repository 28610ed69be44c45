package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/common"
)

type latencyStat struct {
	count int64
	total time.Duration
	max   time.Duration
}

// Latency measures wall-clock time spent inside named handlers. A handler
// wrapped by With is timed including every cascade it triggers, so the
// numbers attribute whole reaction chains to their entry point.
type Latency struct {
	logger *zap.Logger
	stats  map[string]*latencyStat
	names  []string
}

func NewLatency(logger *zap.Logger) *Latency {
	return &Latency{
		logger: logger,
		stats:  make(map[string]*latencyStat),
	}
}

func (l *Latency) With(name string, handler bus.Handler) bus.Handler {
	stat, ok := l.stats[name]
	if !ok {
		stat = &latencyStat{}
		l.stats[name] = stat
		l.names = append(l.names, name)
	}

	return func(ctx context.Context, e common.Event) {
		start := time.Now()
		handler(ctx, e)
		elapsed := time.Since(start)

		stat.count++
		stat.total += elapsed
		if elapsed > stat.max {
			stat.max = elapsed
		}
	}
}

func (l *Latency) PrintStatistics() {
	for _, name := range l.names {
		stat := l.stats[name]
		if stat.count == 0 {
			continue
		}
		l.logger.Info("handler latency",
			zap.String("handler", name),
			zap.Int64("events", stat.count),
			zap.Duration("avg_duration", stat.total/time.Duration(stat.count)),
			zap.Duration("max_duration", stat.max),
			zap.Duration("total_duration", stat.total))
	}
}
