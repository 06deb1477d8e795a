package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scope-labs/provider-intel/pkg/report"
)

var dbLoadInput string

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the provider database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		fmt.Printf("Migrated %s store (%s)\n", cfg.Store.Driver, cfg.Store.DatabaseURL)
		return nil
	},
}

var dbLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a scored provider CSV into the database",
	Long: `Upserts every row of a scored CSV into the providers table. Rows
with an existing provider id are replaced.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		providers, err := report.ReadCSV(dbLoadInput)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.UpsertProviders(ctx, providers)
		if err != nil {
			return err
		}
		total, err := st.CountProviders(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("db load complete", zap.Int("upserted", n), zap.Int("total", total))
		fmt.Printf("Upserted %d providers (%d total in store)\n", n, total)
		return nil
	},
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show provider counts by country and tier",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		total, err := st.CountProviders(ctx)
		if err != nil {
			return err
		}
		byCountry, err := st.CountByCountry(ctx)
		if err != nil {
			return err
		}
		byTier, err := st.CountByTier(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%d providers\n", total)
		fmt.Println("By country:")
		for _, k := range sortedKeys(byCountry) {
			fmt.Printf("  %-4s %d\n", k, byCountry[k])
		}
		fmt.Println("By tier:")
		for _, k := range sortedKeys(byTier) {
			fmt.Printf("  %-8s %d\n", k, byTier[k])
		}
		return nil
	},
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	dbLoadCmd.Flags().StringVar(&dbLoadInput, "input", "", "scored CSV to load (required)")
	_ = dbLoadCmd.MarkFlagRequired("input")

	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbLoadCmd)
	dbCmd.AddCommand(dbStatsCmd)
	rootCmd.AddCommand(dbCmd)
}
