package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/digibook/digimonitor/internal/config"
	"github.com/digibook/digimonitor/internal/model"
)

var cfg *config.Config

var (
	flagPlatform    string
	flagRoot        string
	flagRetries     int
	flagBackoff     time.Duration
	flagTimeout     time.Duration
	flagConcurrency int
	flagOutput      string
	flagFormat      string
	flagNoHeadless  bool
	flagNoSave      bool
)

var rootCmd = &cobra.Command{
	Use:   "digimonitor [-r ROOT] -p {youtube,twitch,tiktok} url",
	Short: "Extract public data from social video platform URLs",
	Long: "digimonitor extracts public data from YouTube, Twitch and TikTok URLs " +
		"through a real browser session, optionally reusing a local browser profile " +
		"for authenticated access. The url argument is a single URL or a UTF-8 file " +
		"with one URL per line.",
	Args: cobra.ExactArgs(1),
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
	RunE: runBatch,
}

func init() {
	rootCmd.Flags().StringVarP(&flagPlatform, "platform", "p", "",
		"target platform: "+model.PlatformNames())
	_ = rootCmd.MarkFlagRequired("platform")
	rootCmd.Flags().StringVarP(&flagRoot, "root", "r", "",
		"browser profile directory for authenticated extraction")
	rootCmd.Flags().IntVar(&flagRetries, "retries", 2,
		"retries per URL for transient failures")
	rootCmd.Flags().DurationVar(&flagBackoff, "backoff", time.Second,
		"base backoff before the first retry (doubles each retry)")
	rootCmd.Flags().DurationVar(&flagTimeout, "timeout", 60*time.Second,
		"timeout for a single extraction attempt")
	rootCmd.Flags().IntVar(&flagConcurrency, "concurrency", 1,
		"max in-flight URLs (page work is still serialized on the browser session)")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "",
		"write the report to this file instead of stdout")
	rootCmd.Flags().StringVar(&flagFormat, "format", "text",
		"report format: text, json or yaml")
	rootCmd.Flags().BoolVar(&flagNoHeadless, "no-headless", false,
		"show the browser window")
	rootCmd.Flags().BoolVar(&flagNoSave, "no-save", false,
		"skip persisting the run to the local store")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
