package bus

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/peter-kozarec/solstice/pkg/common"
)

// Router fans every published event out to all subscribed handlers in
// subscription order, synchronously on the publishing goroutine. An event
// published from inside a handler is delivered depth-first: the inner
// event runs through the full handler chain before the outer delivery
// resumes. The router holds no queue and no lock, so publishing must stay
// on a single goroutine.
type Router struct {
	handlers []Handler

	depth        int
	publishCount atomic.Uint64
	deliverCount atomic.Uint64
	maxDepth     atomic.Int64
}

func NewRouter(handlers ...Handler) *Router {
	r := &Router{}
	r.Subscribe(handlers...)
	return r
}

// Subscribe appends handlers to the delivery chain. There is no
// unsubscribe. A handler subscribed during a publish does not see the
// event being delivered, only subsequent ones.
func (r *Router) Subscribe(handlers ...Handler) {
	r.handlers = append(r.handlers, handlers...)
}

func (r *Router) Publish(ctx context.Context, e common.Event) {
	r.publishCount.Add(1)

	r.depth++
	if d := int64(r.depth); d > r.maxDepth.Load() {
		r.maxDepth.Store(d)
	}

	if len(r.handlers) == 0 {
		slog.Debug("no handlers subscribed", "event", e)
	}
	for _, handler := range r.handlers {
		r.deliverCount.Add(1)
		handler(ctx, e)
	}

	r.depth--
}

func (r *Router) Statistics() Statistics {
	return Statistics{
		PublishCount: r.publishCount.Load(),
		DeliverCount: r.deliverCount.Load(),
		MaxDepth:     r.maxDepth.Load(),
		Handlers:     len(r.handlers),
	}
}

func (r *Router) PrintStatistics() {
	r.Statistics().Print()
}
