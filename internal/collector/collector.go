package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/scope-labs/provider-intel/internal/config"
	"github.com/scope-labs/provider-intel/internal/model"
)

// Collector walks configured sources and writes one JSON batch per listing
// page into the output directory.
type Collector struct {
	browser *Browser
	sources []Source
	cfg     config.CollectConfig
	limiter *rate.Limiter
}

// Result summarizes one collection run.
type Result struct {
	Batches []string // written batch files
	Records int
	Skipped int // detail pages that failed after retry
}

// New wires a collector over an already-launched browser.
func New(browser *Browser, sources []Source, cfg config.CollectConfig) *Collector {
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}
	return &Collector{
		browser: browser,
		sources: sources,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
	}
}

// Run collects every source for the keyword. A blocked source stops only
// that source; the run fails only when nothing was collected at all.
func (c *Collector) Run(ctx context.Context, keyword string) (*Result, error) {
	if err := os.MkdirAll(c.cfg.OutputDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "collector: create output dir %s", c.cfg.OutputDir)
	}

	res := &Result{}
	for _, src := range c.sources {
		if err := c.collectSource(ctx, src, keyword, res); err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			zap.L().Error("collector: source failed",
				zap.String("source", src.Name), zap.Error(err))
		}
	}
	if res.Records == 0 {
		return nil, eris.Errorf("collector: no records collected for %q", keyword)
	}
	return res, nil
}

func (c *Collector) collectSource(ctx context.Context, src Source, keyword string, res *Result) error {
	pageURL := src.SearchFor(keyword)
	maxPages := c.cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	for pageNum := 1; pageNum <= maxPages && pageURL != ""; pageNum++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "collector: rate wait")
		}

		html, err := c.browser.FetchHTML(ctx, pageURL, src.BlockText)
		if err != nil {
			return eris.Wrapf(err, "fetch listing page %d", pageNum)
		}
		listing, err := ParseListing(html, src, pageURL)
		if err != nil {
			return err
		}
		zap.L().Info("collector: listing page",
			zap.String("source", src.Name),
			zap.Int("page", pageNum),
			zap.Int("providers", len(listing.ProviderURLs)))

		records, skipped := c.fetchDetails(ctx, src, listing)
		res.Skipped += skipped
		if len(records) == 0 && len(listing.ProviderURLs) > 0 {
			return eris.Errorf("page %d: every detail fetch failed", pageNum)
		}

		path, err := c.saveBatch(src, keyword, pageNum, pageURL, records)
		if err != nil {
			return err
		}
		res.Batches = append(res.Batches, path)
		res.Records += len(records)

		pageURL = listing.NextURL
	}
	return nil
}

// fetchDetails visits every provider link concurrently and merges each detail
// record over its listing card. Order follows the listing page.
func (c *Collector) fetchDetails(ctx context.Context, src Source, listing *ListingPage) ([]model.RawRecord, int) {
	if len(src.Detail) == 0 {
		return listing.Cards, 0
	}

	cards := map[string]model.RawRecord{}
	for _, card := range listing.Cards {
		cards[card.GetString("source_url")] = card
	}

	type fetched struct {
		idx int
		rec model.RawRecord
	}

	var mu sync.Mutex
	var done []fetched
	skipped := 0

	g, gctx := errgroup.WithContext(ctx)
	fetchers := c.cfg.DetailFetchers
	if fetchers <= 0 {
		fetchers = 2
	}
	g.SetLimit(fetchers)

	for i, u := range listing.ProviderURLs {
		g.Go(func() error {
			if err := c.limiter.Wait(gctx); err != nil {
				return nil
			}
			html, err := c.browser.FetchHTML(gctx, u, src.BlockText)
			if err != nil {
				zap.L().Warn("collector: skipping detail page",
					zap.String("url", u), zap.Error(err))
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
			rec, err := ParseDetail(html, src, u)
			if err != nil {
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
			if card, ok := cards[u]; ok {
				for k, v := range card {
					if _, set := rec[k]; !set {
						rec[k] = v
					}
				}
			}
			mu.Lock()
			done = append(done, fetched{idx: i, rec: rec})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(done, func(a, b int) bool { return done[a].idx < done[b].idx })
	records := make([]model.RawRecord, 0, len(done))
	for _, f := range done {
		records = append(records, f.rec)
	}
	return records, skipped
}

func (c *Collector) saveBatch(src Source, keyword string, pageNum int, pageURL string, records []model.RawRecord) (string, error) {
	batch := model.RawBatch{
		Metadata: model.BatchMetadata{
			Target:      src.Name,
			CountryCode: src.CountryCode,
			Page:        pageNum,
			SourceURL:   pageURL,
			ScrapedAt:   time.Now().UTC(),
			Total:       len(records),
		},
		Records: records,
	}

	name := fmt.Sprintf("%s_page_%d.json", keyword, pageNum)
	if len(c.sources) > 1 {
		name = fmt.Sprintf("%s_%s_page_%d.json", keyword, slugify(src.Name), pageNum)
	}
	path := filepath.Join(c.cfg.OutputDir, name)

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "collector: marshal batch")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "collector: write batch %s", path)
	}
	zap.L().Info("collector: wrote batch",
		zap.String("path", path), zap.Int("records", len(records)))
	return path, nil
}
