package capture

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/peter-kozarec/solstice/pkg/common"
)

// Writer appends quotes to a capture file in arrival order.
type Writer struct {
	file *os.File
	buf  *bufio.Writer
}

func NewWriter(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create capture file %q: %w", path, err)
	}

	return &Writer{
		file: file,
		buf:  bufio.NewWriter(file),
	}, nil
}

func (w *Writer) Write(quote common.Quote) error {
	if err := binary.Write(w.buf, binary.LittleEndian, FromQuote(quote)); err != nil {
		return fmt.Errorf("unable to write capture record: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("unable to flush capture file: %w", err)
	}
	return w.file.Close()
}
