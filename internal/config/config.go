package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ExtractConfig configures the browser session and per-target extraction.
type ExtractConfig struct {
	// TimeoutSecs bounds a single extraction attempt, page load included.
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	// SettleSecs is the post-navigation wait for dynamic content.
	SettleSecs int `yaml:"settle_secs" mapstructure:"settle_secs"`
	// ChatWindowSecs is how long Twitch chat accumulates before capture.
	ChatWindowSecs int  `yaml:"chat_window_secs" mapstructure:"chat_window_secs"`
	Headless       bool `yaml:"headless" mapstructure:"headless"`
}

// BatchConfig configures the batch runner.
type BatchConfig struct {
	// Retries is the number of retries after the first attempt for
	// transient failures.
	Retries   int `yaml:"retries" mapstructure:"retries"`
	BackoffMS int `yaml:"backoff_ms" mapstructure:"backoff_ms"`
	// Concurrency bounds in-flight targets; 1 is the sequential baseline.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	// PageIntervalSecs spaces page loads; 0 disables pacing.
	PageIntervalSecs int `yaml:"page_interval_secs" mapstructure:"page_interval_secs"`
}

// StoreConfig configures run-history persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Timeout returns the per-attempt extraction timeout.
func (c ExtractConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Settle returns the post-navigation settle delay.
func (c ExtractConfig) Settle() time.Duration {
	return time.Duration(c.SettleSecs) * time.Second
}

// ChatWindow returns the Twitch chat capture window.
func (c ExtractConfig) ChatWindow() time.Duration {
	return time.Duration(c.ChatWindowSecs) * time.Second
}

// Backoff returns the base retry backoff.
func (c BatchConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffMS) * time.Millisecond
}

// PageInterval returns the pacing interval between page loads.
func (c BatchConfig) PageInterval() time.Duration {
	return time.Duration(c.PageIntervalSecs) * time.Second
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DIGIMONITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("extract.timeout_secs", 60)
	v.SetDefault("extract.settle_secs", 9)
	v.SetDefault("extract.chat_window_secs", 10)
	v.SetDefault("extract.headless", true)
	v.SetDefault("batch.retries", 2)
	v.SetDefault("batch.backoff_ms", 1000)
	v.SetDefault("batch.concurrency", 1)
	v.SetDefault("batch.page_interval_secs", 0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "digimonitor.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
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
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
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
