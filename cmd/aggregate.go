package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scope-labs/provider-intel/internal/aggregate"
)

var (
	aggregateKeyword string
	aggregatePattern string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Merge raw JSON batches into one flat CSV",
	Long: `Globs raw batch files and flattens every record into a single CSV
table. Files that fail to parse are skipped with a warning; the command only
fails when the pattern matches nothing at all.

Examples:
  provider-intel aggregate
  provider-intel aggregate --keyword odoo --pattern 'data/raw/odoo*.json'`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		pattern := aggregatePattern
		if pattern == "" {
			pattern = aggregateKeyword + "*.json"
		}

		res, err := aggregate.Run(pattern, aggregateKeyword)
		if err != nil {
			return err
		}

		zap.L().Info("aggregate complete",
			zap.Int("files", len(res.Matched)),
			zap.Int("skipped", len(res.Skipped)),
			zap.Int("records", res.Records))
		fmt.Printf("Aggregated %d records from %d files into %s", res.Records, len(res.Matched), res.OutputPath)
		if len(res.Skipped) > 0 {
			fmt.Printf(" (%d files skipped)", len(res.Skipped))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateKeyword, "keyword", "fiverr", "keyword naming the batch files and output CSV")
	aggregateCmd.Flags().StringVar(&aggregatePattern, "pattern", "", "glob for raw batch files (default '<keyword>*.json')")
	rootCmd.AddCommand(aggregateCmd)
}
