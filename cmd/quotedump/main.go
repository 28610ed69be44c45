// Command quotedump extracts one symbol's QUOTE events from an NDJSON
// journal into the binary capture format the backtest reads. Captures
// are a fraction of the journal's size and skip the JSON decode on
// every replay.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/datasource"
	"github.com/peter-kozarec/solstice/pkg/datasource/capture"
	"github.com/peter-kozarec/solstice/pkg/journal"
)

func main() {
	journalPath := flag.String("journal", "", "journal file to read")
	symbol := flag.String("symbol", "", "symbol to extract")
	out := flag.String("out", "", "output capture file, defaults to <symbol>.cap")
	flag.Parse()

	if *journalPath == "" || *symbol == "" {
		slog.Error("usage: quotedump -journal session.ndjson -symbol SYM [-out file]")
		os.Exit(1)
	}

	path := *out
	if path == "" {
		path = *symbol + ".cap"
	}

	count, err := dump(*journalPath, *symbol, path)
	if err != nil {
		slog.Error("dump failed", "error", err)
		_ = os.Remove(path)
		os.Exit(1)
	}
	slog.Info("done", "symbol", *symbol, "path", path, "quotes", count)
}

func dump(journalPath, symbol, outPath string) (int, error) {
	reader, err := journal.NewReader(journalPath, journal.WithTypeFilter(common.TypeQuote))
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = reader.Close()
	}()

	writer, err := capture.NewWriter(outPath)
	if err != nil {
		return 0, err
	}

	count := 0
	for {
		e, err := reader.Next(context.Background())
		if errors.Is(err, datasource.ErrEof) {
			break
		}
		if err != nil {
			_ = writer.Close()
			return count, err
		}

		quote, ok := e.Data.(common.Quote)
		if !ok || quote.Symbol != symbol {
			continue
		}
		if err := writer.Write(quote); err != nil {
			_ = writer.Close()
			return count, err
		}
		count++
	}

	return count, writer.Close()
}
