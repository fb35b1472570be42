// Package main provides the entry point for the profile scraper CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jonathan/profile-scraper/internal/config"
)

var (
	configFile string
	verbose    bool

	// appConfig is the merged file, environment and default configuration. Command flags
	// that are set take precedence over it.
	appConfig = config.Defaults()
)

var rootCmd = &cobra.Command{
	Use:   "profile_agent",
	Short: "LinkedIn profile scraper",
	Long: "Profile agent extracts structured profile records from exported profile PDFs and " +
		"from live profile pages, and stores them locally, in a workbook or in a Google Sheet.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
}

// setup configures logging and loads the configuration before any subcommand runs.
func setup(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configFile, os.Getenv)
	if err != nil {
		return err
	}
	appConfig = cfg
	if appConfig.Verbose {
		verbose = true
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
	return nil
}

// loadConfig layers the optional config file, then the environment, then defaults.
func loadConfig(path string, getenv func(string) string) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = *loaded
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return config.Config{}, err
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// orDefault returns flag when it is set, else fallback.
func orDefault(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
