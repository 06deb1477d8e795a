package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scope-labs/provider-intel/internal/analyzer"
	"github.com/scope-labs/provider-intel/internal/config"
	"github.com/scope-labs/provider-intel/internal/store"
	"github.com/scope-labs/provider-intel/internal/taxonomy"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "provider-intel",
	Short: "Provider directory scraping and market analysis pipeline",
	Long:  "Scrapes service-provider directories, aggregates raw batches, cleans and scores the records, and produces market analysis workbooks.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadDictionary loads the data dictionary, falling back to the built-in one
// when no file is configured or present.
func loadDictionary() *taxonomy.Dictionary {
	path := cfg.Clean.DictionaryPath
	if path == "" {
		return taxonomy.Default()
	}
	dict, err := taxonomy.Load(path)
	if err != nil {
		zap.L().Warn("using built-in data dictionary", zap.String("path", path), zap.Error(err))
		return taxonomy.Default()
	}
	return dict
}

// loadKeywords loads the analysis keyword config with the same fallback rule.
func loadKeywords() *analyzer.Keywords {
	path := cfg.Analyze.KeywordsPath
	if path == "" {
		return analyzer.DefaultKeywords()
	}
	kw, err := analyzer.LoadKeywords(path)
	if err != nil {
		zap.L().Warn("using built-in keywords", zap.String("path", path), zap.Error(err))
		return analyzer.DefaultKeywords()
	}
	return kw
}

// openStore opens the configured store and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
