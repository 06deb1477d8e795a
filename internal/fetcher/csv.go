// Package fetcher reads flat provider tables from CSV files produced by the
// aggregation phase.
package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/scope-labs/provider-intel/internal/model"
)

// CSVOptions configures the streaming table parser.
type CSVOptions struct {
	Delimiter  rune            // default ','
	HeaderCh   chan<- []string // optional: receives the header row
	LazyQuotes bool
	TrimSpace  bool
}

// StreamTable reads a flat CSV table and sends one raw record per data row.
// The first row is treated as the header; empty header cells produce no keys.
// Caller must consume the returned record channel. Both channels are closed
// when processing completes.
func StreamTable(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan model.RawRecord, <-chan error) {
	recCh := make(chan model.RawRecord, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(recCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1 // allow ragged rows

		var header []string
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "fetcher: context cancelled")
				return
			}

			row, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "fetcher: read row")
				return
			}
			if opts.TrimSpace {
				for i, field := range row {
					row[i] = strings.TrimSpace(field)
				}
			}

			if header == nil {
				header = row
				if opts.HeaderCh != nil {
					select {
					case opts.HeaderCh <- row:
					case <-ctx.Done():
						errCh <- eris.Wrap(ctx.Err(), "fetcher: context cancelled sending header")
						return
					}
				}
				continue
			}

			rec := make(model.RawRecord, len(header))
			for i, key := range header {
				if key == "" || i >= len(row) {
					continue
				}
				rec[key] = row[i]
			}

			select {
			case recCh <- rec:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "fetcher: context cancelled")
				return
			}
		}
	}()

	return recCh, errCh
}

// LoadTable reads an entire CSV file into memory. The clean and score phases
// operate on full tables, so there is no need to stream them row by row.
func LoadTable(ctx context.Context, path string) ([]model.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	recCh, errCh := StreamTable(ctx, f, CSVOptions{TrimSpace: true})

	var records []model.RawRecord
	for rec := range recCh {
		records = append(records, rec)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return records, nil
}
