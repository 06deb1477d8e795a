package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/scope-labs/provider-intel/internal/analyzer"
	"github.com/scope-labs/provider-intel/internal/model"
)

func TestWriteXLSX_FourSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.xlsx")

	p := sampleProvider()
	a := &analyzer.Analysis{
		Providers: []model.Provider{p},
		Clusters: []analyzer.ClusterStat{{
			Name: "Implementation, Setup, Deploy", Count: 1,
			MeanQuality: 0.95, MeanPrice: 1200, MinPrice: 1200,
			MaxPrice: 1200, TotalValue: 1200,
		}},
		Gaps: []analyzer.GapStat{
			{Keyword: "migration", Providers: 1, Coverage: 1.0},
			{Keyword: "training", Providers: 0, Coverage: 0, Gap: true},
		},
		Summary: analyzer.Summary{
			Total: 1, AvgPrice: 1200, MedianPrice: 1200, MaxPrice: 1200,
			TotalValue: 1200, AvgCompleteness: 0.9, AvgQuality: 0.95,
			HighQuality: 1,
			TopFlags:    []analyzer.FlagCount{{Flag: "short_description", Count: 1}},
		},
	}

	require.NoError(t, WriteXLSX(path, a))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 4)
	assert.Equal(t, "Executive Summary", f.Sheets[0].Name)
	assert.Equal(t, "Category Analysis", f.Sheets[1].Name)
	assert.Equal(t, "Service Gaps", f.Sheets[2].Name)
	assert.Equal(t, "Raw Data", f.Sheets[3].Name)

	summary := f.Sheets[0]
	assert.Equal(t, "Metric", summary.Rows[0].Cells[0].Value)
	assert.Equal(t, "Total Providers Analyzed", summary.Rows[1].Cells[0].Value)

	gaps := f.Sheets[2]
	require.Len(t, gaps.Rows, 3)
	assert.Equal(t, "migration", gaps.Rows[1].Cells[0].Value)
	assert.Equal(t, "", gaps.Rows[1].Cells[3].Value)
	assert.Equal(t, "training", gaps.Rows[2].Cells[0].Value)
	assert.Equal(t, "GAP", gaps.Rows[2].Cells[3].Value)

	raw := f.Sheets[3]
	require.Len(t, raw.Rows, 2)
	assert.Equal(t, "Acme Solutions", raw.Rows[1].Cells[1].Value)
}

func TestWriteXLSX_EmptyAnalysis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteXLSX(path, &analyzer.Analysis{}))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Sheets, 4)
}
