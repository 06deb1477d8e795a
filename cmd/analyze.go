package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scope-labs/provider-intel/internal/analyzer"
	"github.com/scope-labs/provider-intel/pkg/report"
)

var (
	analyzeInput  string
	analyzeOutput string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Cluster a scored provider table and write the analysis workbook",
	Long: `Clusters providers by service keywords, ranks the resulting
categories, measures coverage of the target keywords, and writes a four-sheet
XLSX workbook: Executive Summary, Category Analysis, Service Gaps, Raw Data.

Clustering is seeded, so repeated runs over the same table produce the same
workbook.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		providers, err := report.ReadCSV(analyzeInput)
		if err != nil {
			return err
		}
		if len(providers) == 0 {
			return eris.Errorf("analyze: no providers in %s", analyzeInput)
		}

		analysis := analyzer.New(loadKeywords(), cfg.Analyze).Analyze(providers)
		if err := report.WriteXLSX(analyzeOutput, analysis); err != nil {
			return err
		}

		zap.L().Info("analyze complete",
			zap.Int("providers", len(analysis.Providers)),
			zap.Int("clusters", len(analysis.Clusters)),
			zap.Int("gaps", len(analysis.Gaps)))
		fmt.Printf("Analyzed %d providers into %d categories: %s\n",
			len(analysis.Providers), len(analysis.Clusters), analyzeOutput)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "scored CSV to analyze (required)")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "analysis.xlsx", "XLSX workbook output path")
	_ = analyzeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(analyzeCmd)
}
