package bus

import (
	"context"

	"github.com/peter-kozarec/solstice/pkg/common"
)

// Handler receives every event published on the router, regardless of type.
// Handlers that only care about a subset switch on Event.Type themselves.
type Handler func(ctx context.Context, e common.Event)

func Merge(handlers ...Handler) Handler {
	return func(ctx context.Context, e common.Event) {
		for _, handler := range handlers {
			handler(ctx, e)
		}
	}
}
