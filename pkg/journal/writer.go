package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/peter-kozarec/solstice/pkg/common"
)

// Writer persists every event it sees as one JSON envelope per line.
// Subscribe it first so the journal records the stream in the exact order
// the pipeline saw it.
type Writer struct {
	file *os.File
	buf  *bufio.Writer
}

func NewWriter(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create journal %q: %w", path, err)
	}

	return &Writer{
		file: file,
		buf:  bufio.NewWriter(file),
	}, nil
}

func (w *Writer) OnEvent(_ context.Context, e common.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("unable to marshal event, skipping journal line", "error", err, "event", e)
		return
	}

	if _, err := w.buf.Write(data); err != nil {
		slog.Error("unable to write journal line", "error", err)
		return
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		slog.Error("unable to write journal line", "error", err)
	}
}

func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("unable to flush journal: %w", err)
	}
	return w.file.Close()
}
