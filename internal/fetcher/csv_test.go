package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scope-labs/provider-intel/internal/model"
)

func collect(recCh <-chan model.RawRecord, errCh <-chan error) ([]model.RawRecord, error) {
	var records []model.RawRecord
	for rec := range recCh {
		records = append(records, rec)
	}
	return records, <-errCh
}

func TestStreamTable(t *testing.T) {
	input := "name,country,price\nAcme,US,1200\nBeta,GB,\n"

	recCh, errCh := StreamTable(context.Background(), strings.NewReader(input), CSVOptions{})
	records, err := collect(recCh, errCh)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Acme", records[0].GetString("name"))
	assert.Equal(t, "US", records[0].GetString("country"))
	assert.Equal(t, "1200", records[0].GetString("price"))
	assert.Equal(t, "", records[1].GetString("price"))
}

func TestStreamTable_HeaderChannel(t *testing.T) {
	headerCh := make(chan []string, 1)
	recCh, errCh := StreamTable(context.Background(),
		strings.NewReader("name,tier\nAcme,Gold\n"), CSVOptions{HeaderCh: headerCh})

	records, err := collect(recCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "tier"}, <-headerCh)
	require.Len(t, records, 1)
}

func TestStreamTable_RaggedRows(t *testing.T) {
	// Short rows simply omit the trailing keys.
	input := "name,country,tier\nAcme,US\nBeta,GB,Gold\n"

	recCh, errCh := StreamTable(context.Background(), strings.NewReader(input), CSVOptions{})
	records, err := collect(recCh, errCh)
	require.NoError(t, err)
	require.Len(t, records, 2)

	_, hasTier := records[0]["tier"]
	assert.False(t, hasTier)
	assert.Equal(t, "Gold", records[1].GetString("tier"))
}

func TestStreamTable_EmptyHeaderCellsSkipped(t *testing.T) {
	input := "name,,country\nAcme,junk,US\n"

	recCh, errCh := StreamTable(context.Background(), strings.NewReader(input), CSVOptions{})
	records, err := collect(recCh, errCh)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0], 2)
	assert.Equal(t, "US", records[0].GetString("country"))
}

func TestStreamTable_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recCh, errCh := StreamTable(ctx, strings.NewReader("name\nAcme\n"), CSVOptions{})
	_, err := collect(recCh, errCh)
	assert.Error(t, err)
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, os.WriteFile(path,
		[]byte("name,country\n  Acme  ,US\n"), 0o644))

	records, err := LoadTable(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Acme", records[0].GetString("name"), "fields are trimmed")
}

func TestLoadTable_MissingFile(t *testing.T) {
	_, err := LoadTable(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
