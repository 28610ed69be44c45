package datasource

import (
	"context"
	"errors"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/common"
)

var ErrEof = errors.New("EOF")

// EventSource produces events one at a time. Next returns ErrEof when the
// source is exhausted. Sources own all blocking I/O and pacing; the
// pipeline itself never waits.
type EventSource interface {
	Next(ctx context.Context) (common.Event, error)
}

// Run pumps the source onto the router until exhaustion, a source error
// or cancellation. Cancellation is checked between emissions only, an
// in-flight cascade always completes.
func Run(ctx context.Context, router *bus.Router, source EventSource) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		e, err := source.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrEof) {
				return nil
			}
			return err
		}

		router.Publish(ctx, e)
	}
}
