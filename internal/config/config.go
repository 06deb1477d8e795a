package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Collect CollectConfig `yaml:"collect" mapstructure:"collect"`
	Clean   CleanConfig   `yaml:"clean" mapstructure:"clean"`
	Score   ScoreConfig   `yaml:"score" mapstructure:"score"`
	Analyze AnalyzeConfig `yaml:"analyze" mapstructure:"analyze"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// CollectConfig configures the browser-driven collection phase.
type CollectConfig struct {
	SourcesPath    string  `yaml:"sources_path" mapstructure:"sources_path"`
	OutputDir      string  `yaml:"output_dir" mapstructure:"output_dir"`
	Headless       bool    `yaml:"headless" mapstructure:"headless"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec     float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	MaxPages       int     `yaml:"max_pages" mapstructure:"max_pages"`
	DetailFetchers int     `yaml:"detail_fetchers" mapstructure:"detail_fetchers"`
	SaveSnapshots  bool    `yaml:"save_snapshots" mapstructure:"save_snapshots"`
	SnapshotDir    string  `yaml:"snapshot_dir" mapstructure:"snapshot_dir"`
}

// CleanConfig configures normalization and deduplication.
type CleanConfig struct {
	DictionaryPath string  `yaml:"dictionary_path" mapstructure:"dictionary_path"`
	DedupThreshold float64 `yaml:"dedup_threshold" mapstructure:"dedup_threshold"`
}

// ScoreConfig configures quality scoring weights.
type ScoreConfig struct {
	CompletenessWeight float64 `yaml:"completeness_weight" mapstructure:"completeness_weight"`
	ValidityWeight     float64 `yaml:"validity_weight" mapstructure:"validity_weight"`
}

// AnalyzeConfig configures clustering and the service-gap report.
type AnalyzeConfig struct {
	KeywordsPath string `yaml:"keywords_path" mapstructure:"keywords_path"`
	Clusters     int    `yaml:"clusters" mapstructure:"clusters"`
	Seed         int64  `yaml:"seed" mapstructure:"seed"`
	MaxIter      int    `yaml:"max_iter" mapstructure:"max_iter"`
}

// StoreConfig configures the optional relational backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROVIDERINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("collect.sources_path", "config/sources.json")
	v.SetDefault("collect.output_dir", "data/raw")
	v.SetDefault("collect.headless", true)
	v.SetDefault("collect.timeout_secs", 30)
	v.SetDefault("collect.rate_per_sec", 0.4)
	v.SetDefault("collect.max_pages", 10)
	v.SetDefault("collect.detail_fetchers", 1)
	v.SetDefault("collect.snapshot_dir", "data/snapshots")
	v.SetDefault("clean.dictionary_path", "config/data_dictionary.json")
	v.SetDefault("clean.dedup_threshold", 0.85)
	v.SetDefault("score.completeness_weight", 0.5)
	v.SetDefault("score.validity_weight", 0.5)
	v.SetDefault("analyze.keywords_path", "config/keywords.yaml")
	v.SetDefault("analyze.clusters", 8)
	v.SetDefault("analyze.seed", 42)
	v.SetDefault("analyze.max_iter", 100)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "providers.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
