package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scope-labs/provider-intel/internal/pipeline"
	"github.com/scope-labs/provider-intel/internal/store"
)

var (
	pipelineKeyword     string
	pipelinePattern     string
	pipelineSkipCollect bool
	pipelinePersist     bool
	pipelineCSV         string
	pipelineReport      string
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the full collect, aggregate, clean, score, analyze flow",
	Long: `Runs every phase in order and prints a per-phase summary. Use
--skip-collect to work from raw batches already on disk, and --persist to
upsert the scored table into the configured database.

Examples:
  provider-intel pipeline
  provider-intel pipeline --keyword odoo --skip-collect --persist`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		var st store.Store
		if pipelinePersist {
			var err error
			st, err = openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
		}

		p := pipeline.New(cfg, loadDictionary(), loadKeywords(), st)
		result, err := p.Run(ctx, pipeline.Options{
			Keyword:     pipelineKeyword,
			Pattern:     pipelinePattern,
			SkipCollect: pipelineSkipCollect,
			CSVPath:     pipelineCSV,
			ReportPath:  pipelineReport,
		})
		if result != nil {
			fmt.Print(pipeline.Summary(result))
		}
		return err
	},
}

func init() {
	pipelineCmd.Flags().StringVar(&pipelineKeyword, "keyword", "fiverr", "search keyword")
	pipelineCmd.Flags().StringVar(&pipelinePattern, "pattern", "", "glob for raw batch files (default '<output-dir>/<keyword>*.json')")
	pipelineCmd.Flags().BoolVar(&pipelineSkipCollect, "skip-collect", false, "reuse existing raw batches instead of scraping")
	pipelineCmd.Flags().BoolVar(&pipelinePersist, "persist", false, "upsert the scored table into the configured store")
	pipelineCmd.Flags().StringVar(&pipelineCSV, "csv", "", "cleaned CSV output path (default '<keyword>_cleaned.csv')")
	pipelineCmd.Flags().StringVar(&pipelineReport, "report", "", "XLSX workbook output path (default '<keyword>_analysis.xlsx')")
	rootCmd.AddCommand(pipelineCmd)
}
