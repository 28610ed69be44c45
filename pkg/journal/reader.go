package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/datasource"
)

const maxLineSize = 1024 * 1024

type ReaderOption func(*Reader)

// WithTypeFilter restricts the reader to the given event types. Filtered
// lines are consumed silently.
func WithTypeFilter(types ...common.Type) ReaderOption {
	return func(r *Reader) {
		r.allowed = make(map[common.Type]bool, len(types))
		for _, t := range types {
			r.allowed[t] = true
		}
	}
}

// Reader streams a journal file in file order. Malformed lines are
// skipped and logged, a journal written by a crashed run stays readable
// up to the damage.
type Reader struct {
	file    *os.File
	scanner *bufio.Scanner
	allowed map[common.Type]bool
	line    int
}

func NewReader(path string, options ...ReaderOption) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open journal %q: %w", path, err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)

	r := &Reader{
		file:    file,
		scanner: scanner,
	}

	for _, option := range options {
		option(r)
	}

	return r, nil
}

func (r *Reader) Next(_ context.Context) (common.Event, error) {
	for r.scanner.Scan() {
		r.line++

		raw := r.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var e common.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			slog.Warn("skipping malformed journal line", "line", r.line, "error", err)
			continue
		}

		if r.allowed != nil && !r.allowed[e.Type] {
			continue
		}

		return e, nil
	}

	if err := r.scanner.Err(); err != nil {
		return common.Event{}, fmt.Errorf("unable to read journal: %w", err)
	}
	return common.Event{}, datasource.ErrEof
}

func (r *Reader) Close() error {
	return r.file.Close()
}
