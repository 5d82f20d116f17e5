package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/killallgit/vidsum/pkg/config"
	"github.com/killallgit/vidsum/pkg/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vidsum",
	Short: "Video summarizer for YouTube and Bilibili",
	Long: `vidsum - video transcript summarizer

Fetches the transcript of a YouTube or Bilibili video (platform captions
first, audio transcription as a fallback), writes a Chinese financial
summary to disk and records it in Notion and a local sqlite database.

Features:
  • Caption extraction with audio download and transcription fallback
  • Audio compression to fit the transcription size limit
  • Duplicate detection across Notion and the local database
  • Channel monitoring for newly published videos`,
	SilenceUsage:      true,
	PersistentPreRunE: initRuntime,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates a new root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "enable JSON formatted logs")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before configuration")
}

// initRuntime loads .env, configures logging and initializes the
// configuration for every command that needs it
func initRuntime(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	level, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")
	logging.Setup(level, jsonLogs)

	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	if err := config.Init(); err != nil {
		return fmt.Errorf("error initializing config: %w", err)
	}

	// settings.yaml may choose the level when the flag was left alone
	if !cmd.Flags().Changed("log-level") && !cmd.Flags().Changed("json-logs") {
		logging.Setup(config.GetString("logging.level"), config.GetBool("logging.json"))
	}
	return nil
}

// loadConfig returns the typed configuration and materializes the cookie
// file from COOKIES_TXT when it is set
func loadConfig() (*config.Config, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}
	if err := writeCookies(cfg.Downloads.CookiesTxt, cfg.Downloads.CookiesFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeCookies(content, path string) error {
	if content == "" || path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cookie directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}
	log.Info().Str("path", path).Msg("cookie file written from COOKIES_TXT")
	return nil
}

// commandContext returns the command context carrying the global logger,
// cancelled on SIGINT or SIGTERM
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = log.Logger.WithContext(ctx)
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// openApplication loads the configuration and wires the services
func openApplication() (*application, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApplication(cfg)
}
