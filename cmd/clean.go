package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scope-labs/provider-intel/internal/cleaner"
	"github.com/scope-labs/provider-intel/internal/fetcher"
	"github.com/scope-labs/provider-intel/pkg/report"
)

var (
	cleanInput  string
	cleanOutput string
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Normalize and deduplicate an aggregated provider table",
	Long: `Reads a flat aggregated CSV, maps every field onto the canonical
schema using the data dictionary, deduplicates near-identical providers, and
writes the cleaned table. Unmapped values are kept and flagged, never dropped.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		records, err := fetcher.LoadTable(cmd.Context(), cleanInput)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return eris.Errorf("clean: no records in %s", cleanInput)
		}

		c := cleaner.New(loadDictionary(), cfg.Clean.DedupThreshold)
		providers := c.Dedupe(c.Clean(records))

		if err := report.WriteCSV(cleanOutput, providers); err != nil {
			return err
		}

		zap.L().Info("clean complete",
			zap.Int("input", len(records)),
			zap.Int("output", len(providers)))
		fmt.Printf("Cleaned %d records into %d providers: %s\n", len(records), len(providers), cleanOutput)
		return nil
	},
}

func init() {
	cleanCmd.Flags().StringVar(&cleanInput, "input", "", "aggregated CSV to clean (required)")
	cleanCmd.Flags().StringVar(&cleanOutput, "output", "cleaned.csv", "cleaned CSV output path")
	_ = cleanCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(cleanCmd)
}
