package aggregate

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scope-labs/provider-intel/internal/model"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRun_MergesEnvelopedAndBareBatches(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFile(t, dir, "fiverr_page_1.json", `{
		"metadata": {"target": "fiverr", "total_records": 2},
		"providers": [
			{"name": "Acme", "country": "US", "price": "From $1,200"},
			{"name": "Beta", "country": "GB"}
		]
	}`)
	writeFile(t, dir, "fiverr_page_2.json", `[
		{"name": "Gamma", "tier": "Gold"}
	]`)

	res, err := Run(filepath.Join(dir, "fiverr*.json"), "fiverr")
	require.NoError(t, err)
	assert.Equal(t, "fiverr_gigs.csv", res.OutputPath)
	assert.Len(t, res.Matched, 2)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, 3, res.Records)

	rows := readCSV(t, res.OutputPath)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"country", "name", "price", "tier", "price_numeric"}, rows[0])
	assert.Equal(t, []string{"US", "Acme", "From $1,200", "", "1200"}, rows[1])
	assert.Equal(t, []string{"GB", "Beta", "", "", ""}, rows[2])
	assert.Equal(t, []string{"", "Gamma", "", "Gold", ""}, rows[3])
}

func TestRun_SkipsUnreadableBatch(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFile(t, dir, "fiverr_page_1.json", `[{"name": "Acme"}]`)
	bad := writeFile(t, dir, "fiverr_page_2.json", `{not json at all`)

	res, err := Run(filepath.Join(dir, "fiverr*.json"), "fiverr")
	require.NoError(t, err)
	assert.Equal(t, []string{bad}, res.Skipped)
	assert.Equal(t, 1, res.Records)
}

func TestRun_NoMatchingFiles(t *testing.T) {
	_, err := Run(filepath.Join(t.TempDir(), "nothing*.json"), "fiverr")
	assert.Error(t, err)
}

func TestRun_ZeroValidRecords(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFile(t, dir, "fiverr_page_1.json", `broken`)
	writeFile(t, dir, "fiverr_page_2.json", `{"metadata": {}}`)

	res, err := Run(filepath.Join(dir, "fiverr*.json"), "fiverr")
	assert.Error(t, err)
	assert.Len(t, res.Skipped, 2)
}

func TestFlatten_ColumnUnionFirstSeenOrder(t *testing.T) {
	table := Flatten([]model.RawRecord{
		{"name": "A", "country": "US"},
		{"name": "B", "website": "https://b.com"},
	})

	assert.Equal(t, []string{"country", "name", "website"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"US", "A", ""}, table.Rows[0])
	assert.Equal(t, []string{"", "B", "https://b.com"}, table.Rows[1])
}

func TestFlatten_CellValues(t *testing.T) {
	table := Flatten([]model.RawRecord{{
		"name":     "Acme",
		"rating":   4.5,
		"count":    float64(12),
		"verified": true,
		"services": []any{"Implementation", "Migration"},
	}})

	require.Len(t, table.Rows, 1)
	row := table.Rows[0]
	cols := table.Columns
	get := func(col string) string {
		for i, c := range cols {
			if c == col {
				return row[i]
			}
		}
		t.Fatalf("column %q not found", col)
		return ""
	}
	assert.Equal(t, "4.50", get("rating"))
	assert.Equal(t, "12", get("count"))
	assert.Equal(t, "true", get("verified"))
	assert.Equal(t, "Implementation; Migration", get("services"))
}

// rowSet reduces a table to per-row column→value maps, dropping empty cells,
// so tables with different column orders compare by content.
func rowSet(t Table) []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		m := make(map[string]string)
		for i, col := range t.Columns {
			if row[i] != "" {
				m[col] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}

func TestFlatten_Associative(t *testing.T) {
	batchA := []model.RawRecord{{"name": "Acme", "country": "US", "price": "From $1,200"}}
	batchB := []model.RawRecord{{"name": "Beta", "website": "https://b.com"}}
	batchC := []model.RawRecord{{"name": "Gamma", "tier": "Gold"}}

	var all []model.RawRecord
	all = append(all, batchA...)
	all = append(all, batchB...)
	all = append(all, batchC...)
	whole := Flatten(all)

	var ab []model.RawRecord
	ab = append(ab, batchA...)
	ab = append(ab, batchB...)
	staged := append(rowSet(Flatten(ab)), rowSet(Flatten(batchC))...)

	assert.ElementsMatch(t, rowSet(whole), staged,
		"merging [A,B] then [C] yields the same rows as [A,B,C]")

	union := map[string]bool{}
	for _, part := range []Table{Flatten(ab), Flatten(batchC)} {
		for _, c := range part.Columns {
			union[c] = true
		}
	}
	assert.Len(t, whole.Columns, len(union))
	for _, c := range whole.Columns {
		assert.True(t, union[c], "column %q missing from staged union", c)
	}
}

func TestFlatten_PriceNumericDerived(t *testing.T) {
	table := Flatten([]model.RawRecord{
		{"name": "A", "price": "From $1,200"},
		{"name": "B", "price": "Contact us"},
		{"name": "C"},
	})

	require.Equal(t, "price_numeric", table.Columns[len(table.Columns)-1])
	last := len(table.Columns) - 1
	assert.Equal(t, "1200", table.Rows[0][last])
	assert.Equal(t, "", table.Rows[1][last])
	assert.Equal(t, "", table.Rows[2][last])
}
