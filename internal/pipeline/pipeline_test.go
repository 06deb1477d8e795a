package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scope-labs/provider-intel/internal/config"
	"github.com/scope-labs/provider-intel/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		Collect: config.CollectConfig{OutputDir: "data/raw"},
		Clean:   config.CleanConfig{DedupThreshold: 0.85},
		Score:   config.ScoreConfig{CompletenessWeight: 0.5, ValidityWeight: 0.5},
		Analyze: config.AnalyzeConfig{Clusters: 2, Seed: 42, MaxIter: 100},
	}
}

const rawBatch = `{
	"metadata": {"target": "fiverr", "country_code": "US", "total_records": 3},
	"providers": [
		{
			"name": "Acme Solutions  Gold",
			"country": "United States",
			"tier": "Level: Gold",
			"website": "acme.com",
			"description": "Full-service implementation and migration shop with enterprise delivery experience.",
			"services": "Implementation; Migration",
			"price": "From $1,200",
			"source_url": "https://directory.example.com/sellers/acme"
		},
		{
			"name": "acme solutions",
			"country": "US",
			"source_url": "https://directory.example.com/sellers/acme-2"
		},
		{
			"name": "Beta Integrations",
			"country": "GB",
			"services": "API Integration",
			"source_url": "https://directory.example.com/sellers/beta"
		}
	]
}`

func TestRun_SkipCollect(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fiverr_page_1.json"), []byte(rawBatch), 0o644))

	p := New(testConfig(), nil, nil, nil)
	res, err := p.Run(context.Background(), Options{
		Keyword:     "fiverr",
		Pattern:     filepath.Join(dir, "fiverr*.json"),
		SkipCollect: true,
	})
	require.NoError(t, err)

	require.Len(t, res.Phases, 6)
	assert.Equal(t, "collect", res.Phases[0].Name)
	assert.Equal(t, model.PhaseStatusSkipped, res.Phases[0].Status)
	assert.Equal(t, "persist", res.Phases[4].Name)
	assert.Equal(t, model.PhaseStatusSkipped, res.Phases[4].Status)
	for _, ph := range res.Phases[1:4] {
		assert.Equal(t, model.PhaseStatusComplete, ph.Status, ph.Name)
	}
	assert.Equal(t, model.PhaseStatusComplete, res.Phases[5].Status)

	assert.Equal(t, 3, res.RawRecords)
	assert.Equal(t, 2, res.CleanRecords, "near-duplicate providers are merged")
	assert.Greater(t, res.AvgQuality, 0.0)

	assert.FileExists(t, res.CSVPath)
	assert.FileExists(t, res.ReportPath)
	assert.Equal(t, "fiverr_cleaned.csv", res.CSVPath)
	assert.Equal(t, "fiverr_analysis.xlsx", res.ReportPath)
}

func TestRun_ExplicitOutputPaths(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fiverr_page_1.json"), []byte(rawBatch), 0o644))

	p := New(testConfig(), nil, nil, nil)
	res, err := p.Run(context.Background(), Options{
		Keyword:     "fiverr",
		Pattern:     filepath.Join(dir, "fiverr*.json"),
		SkipCollect: true,
		CSVPath:     filepath.Join(dir, "custom.csv"),
		ReportPath:  filepath.Join(dir, "custom.xlsx"),
	})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "custom.csv"))
	assert.FileExists(t, filepath.Join(dir, "custom.xlsx"))
	assert.Equal(t, filepath.Join(dir, "custom.csv"), res.CSVPath)
}

func TestRun_AggregateFailureStopsRun(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	p := New(testConfig(), nil, nil, nil)
	res, err := p.Run(context.Background(), Options{
		Keyword:     "fiverr",
		Pattern:     filepath.Join(dir, "nothing*.json"),
		SkipCollect: true,
	})
	require.Error(t, err)

	require.Len(t, res.Phases, 2)
	assert.Equal(t, model.PhaseStatusSkipped, res.Phases[0].Status)
	assert.Equal(t, "aggregate", res.Phases[1].Name)
	assert.Equal(t, model.PhaseStatusFailed, res.Phases[1].Status)
	assert.NotEmpty(t, res.Phases[1].Error)
}

func TestSummary(t *testing.T) {
	r := &model.RunResult{
		Target:       "fiverr",
		RawRecords:   10,
		CleanRecords: 8,
		AvgQuality:   0.82,
		CSVPath:      "fiverr_cleaned.csv",
		ReportPath:   "fiverr_analysis.xlsx",
		Phases: []model.PhaseResult{
			{Name: "collect", Status: model.PhaseStatusSkipped},
			{Name: "aggregate", Status: model.PhaseStatusComplete, Records: 10, Duration: 12},
			{Name: "clean", Status: model.PhaseStatusFailed, Error: "boom"},
		},
	}

	s := Summary(r)
	assert.Contains(t, s, `Run "fiverr": 10 raw -> 8 clean, avg quality 0.82`)
	assert.Contains(t, s, "collect")
	assert.Contains(t, s, "skipped")
	assert.Contains(t, s, "FAILED (boom)")
	assert.Contains(t, s, "fiverr_cleaned.csv")
	assert.Contains(t, s, "fiverr_analysis.xlsx")
}
