// Package pipeline chains collection, aggregation, cleaning, scoring, and
// analysis into a single run.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scope-labs/provider-intel/internal/aggregate"
	"github.com/scope-labs/provider-intel/internal/analyzer"
	"github.com/scope-labs/provider-intel/internal/cleaner"
	"github.com/scope-labs/provider-intel/internal/collector"
	"github.com/scope-labs/provider-intel/internal/config"
	"github.com/scope-labs/provider-intel/internal/fetcher"
	"github.com/scope-labs/provider-intel/internal/model"
	"github.com/scope-labs/provider-intel/internal/scorer"
	"github.com/scope-labs/provider-intel/internal/store"
	"github.com/scope-labs/provider-intel/internal/taxonomy"
	"github.com/scope-labs/provider-intel/pkg/report"
)

// Options controls a single pipeline run.
type Options struct {
	Keyword     string
	Pattern     string // glob over raw batch files; derived from config when empty
	SkipCollect bool   // reuse existing raw batches instead of scraping
	CSVPath     string // cleaned table output; "<keyword>_cleaned.csv" when empty
	ReportPath  string // workbook output; "<keyword>_analysis.xlsx" when empty
}

// Pipeline orchestrates the full collect-to-report flow.
type Pipeline struct {
	cfg      *config.Config
	dict     *taxonomy.Dictionary
	keywords *analyzer.Keywords
	store    store.Store // nil disables persistence
}

// New creates a Pipeline. A nil store skips the persistence phase.
func New(cfg *config.Config, dict *taxonomy.Dictionary, keywords *analyzer.Keywords, st store.Store) *Pipeline {
	return &Pipeline{cfg: cfg, dict: dict, keywords: keywords, store: st}
}

// Run executes every phase in order. A failed collect aborts the run; every
// later phase depends on the one before it.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*model.RunResult, error) {
	keyword := opts.Keyword
	if keyword == "" {
		keyword = "fiverr"
	}
	log := zap.L().With(zap.String("keyword", keyword))
	log.Info("pipeline: starting run")

	result := &model.RunResult{Target: keyword}

	track := func(name string, fn func() (int, error)) error {
		start := time.Now()
		records, err := fn()
		pr := model.PhaseResult{
			Name:     name,
			Duration: time.Since(start).Milliseconds(),
			Records:  records,
			Status:   model.PhaseStatusComplete,
		}
		if err != nil {
			pr.Status = model.PhaseStatusFailed
			pr.Error = err.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.Duration),
				zap.Error(err))
		} else {
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.Duration),
				zap.Int("records", records))
		}
		result.Phases = append(result.Phases, pr)
		return err
	}
	skip := func(name string) {
		result.Phases = append(result.Phases, model.PhaseResult{
			Name:   name,
			Status: model.PhaseStatusSkipped,
		})
	}

	// Phase 1: collect
	if opts.SkipCollect {
		skip("collect")
	} else {
		if err := track("collect", func() (int, error) {
			return p.collect(ctx, keyword)
		}); err != nil {
			return result, eris.Wrap(err, "pipeline: collect")
		}
	}

	// Phase 2: aggregate
	pattern := opts.Pattern
	if pattern == "" {
		pattern = filepath.Join(p.cfg.Collect.OutputDir, keyword+"*.json")
	}
	var agg *aggregate.Result
	if err := track("aggregate", func() (int, error) {
		var err error
		agg, err = aggregate.Run(pattern, keyword)
		if err != nil {
			return 0, err
		}
		return agg.Records, nil
	}); err != nil {
		return result, eris.Wrap(err, "pipeline: aggregate")
	}
	result.RawRecords = agg.Records

	// Phase 3: clean
	var cleaned []model.Provider
	if err := track("clean", func() (int, error) {
		records, err := fetcher.LoadTable(ctx, agg.OutputPath)
		if err != nil {
			return 0, err
		}
		c := cleaner.New(p.dict, p.cfg.Clean.DedupThreshold)
		cleaned = c.Dedupe(c.Clean(records))
		return len(cleaned), nil
	}); err != nil {
		return result, eris.Wrap(err, "pipeline: clean")
	}
	result.CleanRecords = len(cleaned)

	// Phase 4: score
	var scored []model.Provider
	if err := track("score", func() (int, error) {
		if err := scorer.ValidateConfig(p.cfg.Score); err != nil {
			return 0, err
		}
		scored = scorer.New(p.dict, p.cfg.Score).ScoreAll(cleaned)
		return len(scored), nil
	}); err != nil {
		return result, eris.Wrap(err, "pipeline: score")
	}
	result.AvgQuality = avgQuality(scored)

	// Phase 5: persist (optional)
	if p.store == nil {
		skip("persist")
	} else {
		if err := track("persist", func() (int, error) {
			return p.store.UpsertProviders(ctx, scored)
		}); err != nil {
			return result, eris.Wrap(err, "pipeline: persist")
		}
	}

	// Phase 6: analyze and report
	csvPath := opts.CSVPath
	if csvPath == "" {
		csvPath = keyword + "_cleaned.csv"
	}
	reportPath := opts.ReportPath
	if reportPath == "" {
		reportPath = keyword + "_analysis.xlsx"
	}
	if err := track("analyze", func() (int, error) {
		analysis := analyzer.New(p.keywords, p.cfg.Analyze).Analyze(scored)
		if err := report.WriteCSV(csvPath, analysis.Providers); err != nil {
			return 0, err
		}
		if err := report.WriteXLSX(reportPath, analysis); err != nil {
			return 0, err
		}
		return len(analysis.Providers), nil
	}); err != nil {
		return result, eris.Wrap(err, "pipeline: analyze")
	}
	result.CSVPath = csvPath
	result.ReportPath = reportPath

	log.Info("pipeline: run complete",
		zap.Int("raw", result.RawRecords),
		zap.Int("clean", result.CleanRecords),
		zap.Float64("avg_quality", result.AvgQuality))
	return result, nil
}

func (p *Pipeline) collect(ctx context.Context, keyword string) (int, error) {
	sources, err := collector.LoadSources(p.cfg.Collect.SourcesPath)
	if err != nil {
		return 0, err
	}
	snapshotDir := ""
	if p.cfg.Collect.SaveSnapshots {
		snapshotDir = p.cfg.Collect.SnapshotDir
	}
	browser, err := collector.Launch(
		p.cfg.Collect.Headless,
		time.Duration(p.cfg.Collect.TimeoutSecs)*time.Second,
		snapshotDir,
	)
	if err != nil {
		return 0, err
	}
	defer browser.Close()

	res, err := collector.New(browser, sources, p.cfg.Collect).Run(ctx, keyword)
	if err != nil {
		return 0, err
	}
	return res.Records, nil
}

// Summary renders a terminal-friendly recap of a run.
func Summary(r *model.RunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %q: %d raw -> %d clean, avg quality %.2f\n",
		r.Target, r.RawRecords, r.CleanRecords, r.AvgQuality)
	for _, ph := range r.Phases {
		switch ph.Status {
		case model.PhaseStatusSkipped:
			fmt.Fprintf(&b, "  %-10s skipped\n", ph.Name)
		case model.PhaseStatusFailed:
			fmt.Fprintf(&b, "  %-10s FAILED (%s)\n", ph.Name, ph.Error)
		default:
			fmt.Fprintf(&b, "  %-10s %5d records in %dms\n", ph.Name, ph.Records, ph.Duration)
		}
	}
	if r.CSVPath != "" {
		fmt.Fprintf(&b, "  table:  %s\n", r.CSVPath)
	}
	if r.ReportPath != "" {
		fmt.Fprintf(&b, "  report: %s\n", r.ReportPath)
	}
	return b.String()
}

func avgQuality(providers []model.Provider) float64 {
	if len(providers) == 0 {
		return 0
	}
	var sum float64
	for _, p := range providers {
		sum += p.QualityScore
	}
	return sum / float64(len(providers))
}
