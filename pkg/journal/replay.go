package journal

import (
	"context"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/datasource"
)

// Replay republishes a journal file onto the router in file order. With
// types given, only those event types are replayed; replaying just the
// external inputs lets the pipeline regenerate everything downstream.
func Replay(ctx context.Context, router *bus.Router, path string, types ...common.Type) error {
	options := make([]ReaderOption, 0, 1)
	if len(types) > 0 {
		options = append(options, WithTypeFilter(types...))
	}

	reader, err := NewReader(path, options...)
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()

	return datasource.Run(ctx, router, reader)
}
