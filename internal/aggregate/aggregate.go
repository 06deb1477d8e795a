// Package aggregate merges raw JSON batch files into one flat CSV table.
// Rows are the union of all batch records and columns the union of observed
// fields; a bad batch file is skipped with a warning, never fatal.
package aggregate

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scope-labs/provider-intel/internal/cleaner"
	"github.com/scope-labs/provider-intel/internal/model"
)

// Result summarizes an aggregation run.
type Result struct {
	OutputPath string
	Matched    []string
	Skipped    []string
	Records    int
	Columns    []string
}

// Run globs batch files matching pattern, merges their records, and writes
// "<keyword>_gigs.csv". It returns an error only when zero files match or
// the merged table has zero valid records; individual bad files are skipped
// and reported in Result.Skipped.
func Run(pattern, keyword string) (*Result, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, eris.Wrapf(err, "aggregate: bad pattern %q", pattern)
	}
	if len(files) == 0 {
		return nil, eris.Errorf("aggregate: no input files matched %q", pattern)
	}
	sort.Strings(files)

	res := &Result{
		OutputPath: keyword + "_gigs.csv",
		Matched:    files,
	}

	var records []model.RawRecord
	for _, file := range files {
		batch, err := readBatch(file)
		if err != nil {
			zap.L().Warn("aggregate: skipping unreadable batch",
				zap.String("file", file), zap.Error(err))
			res.Skipped = append(res.Skipped, file)
			continue
		}
		zap.L().Info("aggregate: loaded batch",
			zap.String("file", file), zap.Int("records", len(batch)))
		records = append(records, batch...)
	}

	if len(records) == 0 {
		return res, eris.Errorf("aggregate: zero valid records across %d matched files", len(files))
	}

	table := Flatten(records)
	if err := writeCSV(res.OutputPath, table); err != nil {
		return res, err
	}

	res.Records = len(table.Rows)
	res.Columns = table.Columns
	zap.L().Info("aggregate: wrote flat table",
		zap.String("output", res.OutputPath),
		zap.Int("records", res.Records),
		zap.Int("skipped_files", len(res.Skipped)))
	return res, nil
}

// Table is a flat row/column view of merged raw records.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Flatten merges raw records into a flat table. Columns are the union of
// observed field names in first-seen order, with price_numeric appended when
// any record carries a price. Missing fields render as empty cells, so the
// merge is order-independent up to row order.
func Flatten(records []model.RawRecord) Table {
	var columns []string
	seen := make(map[string]bool)
	hasPrice := false

	for _, r := range records {
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
			if k == "price" {
				hasPrice = true
			}
		}
	}
	if hasPrice && !seen["price_numeric"] {
		columns = append(columns, "price_numeric")
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			if col == "price_numeric" && r[col] == nil {
				if price := cleaner.CoercePrice(r.GetString("price")); price > 0 {
					row[i] = strings.TrimSuffix(fmt.Sprintf("%.2f", price), ".00")
				}
				continue
			}
			row[i] = cellValue(r[col])
		}
		rows = append(rows, row)
	}

	return Table{Columns: columns, Rows: rows}
}

// readBatch decodes one raw batch file. Files may be a bare record list or
// the enveloped {metadata, providers} shape the collector writes.
func readBatch(path string) ([]model.RawRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read")
	}

	var list []model.RawRecord
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var batch model.RawBatch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, eris.Wrap(err, "decode")
	}
	if batch.Records == nil {
		return nil, eris.New("no provider list found")
	}
	return batch.Records, nil
}

func cellValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%.2f", x), ".00")
	case bool:
		return fmt.Sprintf("%t", x)
	case []any, []string:
		r := model.RawRecord{"v": v}
		return strings.Join(r.GetList("v"), model.ListSep)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func writeCSV(path string, t Table) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "aggregate: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return eris.Wrap(err, "aggregate: write header")
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "aggregate: write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "aggregate: flush csv")
}
