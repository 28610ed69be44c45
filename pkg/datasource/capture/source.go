package capture

import (
	"fmt"
	"io"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/exp/mmap"

	"github.com/peter-kozarec/solstice/pkg/datasource"
)

// Source reads fixed-width records from a memory-mapped capture file by
// index. Random access stays cheap for files far larger than memory.
type Source struct {
	path       string
	reader     *mmap.ReaderAt
	bufferPool *sync.Pool
}

func NewSource(path string) *Source {
	return &Source{
		path: path,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buffer := make([]byte, int(unsafe.Sizeof(BinaryQuote{})))
				return &buffer
			},
		},
	}
}

func (s *Source) Open() error {
	var err error
	s.reader, err = mmap.Open(s.path)
	if err != nil {
		return fmt.Errorf("unable to open capture file %q: %w", s.path, err)
	}
	return nil
}

func (s *Source) Close() {
	_ = s.reader.Close()
}

func (s *Source) Read(index int64, record *BinaryQuote) error {
	buffer := s.bufferPool.Get().(*[]byte)
	defer s.bufferPool.Put(buffer)

	offset := index * int64(len(*buffer))

	n, err := s.reader.ReadAt(*buffer, offset)
	if err != nil && err != io.EOF {
		return fmt.Errorf("unable to read capture record: %w", err)
	}
	if n < len(*buffer) {
		return datasource.ErrEof
	}

	*record = *(*BinaryQuote)(unsafe.Pointer(&(*buffer)[0])) // #nosec G103
	return nil
}

func (s *Source) EntryCount() (int64, error) {
	recordSize := int64(unsafe.Sizeof(BinaryQuote{}))

	fileInfo, err := os.Stat(s.path)
	if err != nil {
		return 0, fmt.Errorf("unable to stat capture file %q: %w", s.path, err)
	}

	totalSize := fileInfo.Size()
	if totalSize%recordSize != 0 {
		return 0, fmt.Errorf("capture file size %d is not a multiple of record size %d", totalSize, recordSize)
	}

	return totalSize / recordSize, nil
}
