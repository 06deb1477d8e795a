package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scope-labs/provider-intel/internal/scorer"
	"github.com/scope-labs/provider-intel/pkg/report"
)

var (
	scoreInput  string
	scoreOutput string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Attach data quality scores to a cleaned provider table",
	Long: `Computes completeness, validity, and combined quality scores for
every provider and writes the scored table. Scoring never modifies the
underlying data; it only adds scores and quality flags.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := scorer.ValidateConfig(cfg.Score); err != nil {
			return err
		}

		providers, err := report.ReadCSV(scoreInput)
		if err != nil {
			return err
		}

		scored := scorer.New(loadDictionary(), cfg.Score).ScoreAll(providers)

		out := scoreOutput
		if out == "" {
			out = scoreInput // scoring in place is the common case
		}
		if err := report.WriteCSV(out, scored); err != nil {
			return err
		}

		var sum float64
		for _, p := range scored {
			sum += p.QualityScore
		}
		avg := 0.0
		if len(scored) > 0 {
			avg = sum / float64(len(scored))
		}

		zap.L().Info("score complete", zap.Int("providers", len(scored)), zap.Float64("avg_quality", avg))
		fmt.Printf("Scored %d providers (avg quality %.2f): %s\n", len(scored), avg, out)
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreInput, "input", "", "cleaned CSV to score (required)")
	scoreCmd.Flags().StringVar(&scoreOutput, "output", "", "scored CSV output path (default: overwrite input)")
	_ = scoreCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(scoreCmd)
}
