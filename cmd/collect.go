package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scope-labs/provider-intel/internal/collector"
)

var (
	collectKeyword  string
	collectSources  string
	collectOutDir   string
	collectMaxPages int
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Scrape configured provider directories into raw JSON batches",
	Long: `Drives a headless browser over every configured source, extracting
provider records page by page. Each listing page becomes one JSON batch file
in the output directory.

Examples:
  # Scrape with defaults (keyword "fiverr")
  provider-intel collect

  # Scrape a different keyword, two pages per source
  provider-intel collect --keyword odoo --max-pages 2`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cc := cfg.Collect
		if collectSources != "" {
			cc.SourcesPath = collectSources
		}
		if collectOutDir != "" {
			cc.OutputDir = collectOutDir
		}
		if collectMaxPages > 0 {
			cc.MaxPages = collectMaxPages
		}

		sources, err := collector.LoadSources(cc.SourcesPath)
		if err != nil {
			return err
		}

		snapshotDir := ""
		if cc.SaveSnapshots {
			snapshotDir = cc.SnapshotDir
		}
		browser, err := collector.Launch(cc.Headless, time.Duration(cc.TimeoutSecs)*time.Second, snapshotDir)
		if err != nil {
			return err
		}
		defer browser.Close()

		res, err := collector.New(browser, sources, cc).Run(ctx, collectKeyword)
		if err != nil {
			return eris.Wrap(err, "collect")
		}

		zap.L().Info("collect complete",
			zap.Int("records", res.Records),
			zap.Int("batches", len(res.Batches)),
			zap.Int("skipped", res.Skipped))
		fmt.Printf("Collected %d records into %d batches (%d detail pages skipped)\n",
			res.Records, len(res.Batches), res.Skipped)
		return nil
	},
}

func init() {
	collectCmd.Flags().StringVar(&collectKeyword, "keyword", "fiverr", "search keyword")
	collectCmd.Flags().StringVar(&collectSources, "sources", "", "sources config file (default from config)")
	collectCmd.Flags().StringVar(&collectOutDir, "output-dir", "", "raw batch output directory (default from config)")
	collectCmd.Flags().IntVar(&collectMaxPages, "max-pages", 0, "max listing pages per source (default from config)")
	rootCmd.AddCommand(collectCmd)
}
