package bus

import (
	"log/slog"
)

type Statistics struct {
	PublishCount uint64
	DeliverCount uint64
	MaxDepth     int64
	Handlers     int
}

func (s Statistics) Print() {
	slog.Info("router statistics",
		"publish_count", s.PublishCount,
		"deliver_count", s.DeliverCount,
		"max_depth", s.MaxDepth,
		"handlers", s.Handlers)
}
