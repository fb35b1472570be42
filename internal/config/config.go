// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Storage
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL
	SQLitePath  string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`   // Local store when no database URL is set
	XLSXPath    string `json:"xlsx_path,omitempty" yaml:"xlsx_path,omitempty"`       // Workbook that parsed rows are appended to

	// Upload sink
	SheetID         string `json:"sheet_id,omitempty" yaml:"sheet_id,omitempty"`                 // Target spreadsheet
	CredentialsFile string `json:"credentials_file,omitempty" yaml:"credentials_file,omitempty"` // Service account key; empty uses ADC
	DriveFolder     string `json:"drive_folder,omitempty" yaml:"drive_folder,omitempty"`         // Folder for uploaded documents

	// Watcher
	WatchDir    string `json:"watch_dir,omitempty" yaml:"watch_dir,omitempty"`       // Download folder to watch
	WatchSettle string `json:"watch_settle,omitempty" yaml:"watch_settle,omitempty"` // Quiet period before a new file is parsed, e.g. "2s"

	// Bulk traversal
	RemoteBrowser string `json:"remote_browser,omitempty" yaml:"remote_browser,omitempty"` // DevTools websocket URL of a running browser
	ShowBrowser   bool   `json:"show_browser,omitempty" yaml:"show_browser,omitempty"`     // Launch a visible browser instead of headless
	AutoScroll    bool   `json:"auto_scroll,omitempty" yaml:"auto_scroll,omitempty"`
	MaxProfiles   int    `json:"max_profiles,omitempty" yaml:"max_profiles,omitempty"`
	OpenProfiles  bool   `json:"open_profiles,omitempty" yaml:"open_profiles,omitempty"`

	// Behavior
	Port    int  `json:"port,omitempty" yaml:"port,omitempty"`       // HTTP port for serve
	Workers int  `json:"workers,omitempty" yaml:"workers,omitempty"` // Parallel parsers for directory parsing
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"` // Print detailed debug information
}

// Defaults returns the values used when neither the file nor a flag sets a field.
func Defaults() Config {
	return Config{
		SQLitePath:  "profiles.db",
		DriveFolder: "LinkedIn PDFs",
		WatchSettle: "2s",
		Port:        8080,
		Workers:     4,
	}
}

// LoadConfig loads configuration from a JSON file, or YAML for .yaml/.yml paths.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	return &cfg, nil
}

// envOverrides maps environment variables onto the fields they replace.
var envOverrides = map[string]func(c *Config, v string) error{
	"DATABASE_URL":            func(c *Config, v string) error { c.DatabaseURL = v; return nil },
	"SQLITE_PATH":             func(c *Config, v string) error { c.SQLitePath = v; return nil },
	"SHEET_ID":                func(c *Config, v string) error { c.SheetID = v; return nil },
	"GOOGLE_CREDENTIALS_FILE": func(c *Config, v string) error { c.CredentialsFile = v; return nil },
	"WATCH_DIR":               func(c *Config, v string) error { c.WatchDir = v; return nil },
	"REMOTE_BROWSER_URL":      func(c *Config, v string) error { c.RemoteBrowser = v; return nil },
	"PORT": func(c *Config, v string) error {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT must be a number: %w", err)
		}
		c.Port = port
		return nil
	},
}

// ApplyEnv overrides fields from set environment variables. getenv is os.Getenv outside
// tests.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	for key, apply := range envOverrides {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if err := apply(c, v); err != nil {
				return fmt.Errorf("config error: %w", err)
			}
		}
	}
	return nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.DatabaseURL != "" && !strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return fmt.Errorf("config error: 'database_url' must be a postgres:// URL")
	}
	if c.MaxProfiles < 0 {
		return fmt.Errorf("config error: 'max_profiles' must be non-negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("config error: 'workers' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if _, err := c.Settle(); err != nil {
		return err
	}

	if c.CredentialsFile != "" {
		if _, err := os.Stat(c.CredentialsFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: credentials file not found: %s", c.CredentialsFile)
		}
	}
	if c.WatchDir != "" {
		info, err := os.Stat(c.WatchDir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("config error: watch directory not found: %s", c.WatchDir)
		}
	}
	return nil
}

// Settle parses WatchSettle. Empty means zero, which the watcher replaces with its default.
func (c *Config) Settle() (time.Duration, error) {
	if c.WatchSettle == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.WatchSettle)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("config error: 'watch_settle' must be a non-negative duration: %q", c.WatchSettle)
	}
	return d, nil
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	for _, f := range []struct{ dst, src *string }{
		{&result.DatabaseURL, &defaults.DatabaseURL},
		{&result.SQLitePath, &defaults.SQLitePath},
		{&result.XLSXPath, &defaults.XLSXPath},
		{&result.SheetID, &defaults.SheetID},
		{&result.CredentialsFile, &defaults.CredentialsFile},
		{&result.DriveFolder, &defaults.DriveFolder},
		{&result.WatchDir, &defaults.WatchDir},
		{&result.WatchSettle, &defaults.WatchSettle},
		{&result.RemoteBrowser, &defaults.RemoteBrowser},
	} {
		if *f.dst == "" {
			*f.dst = *f.src
		}
	}

	// Int fields: use default if zero
	if result.MaxProfiles == 0 {
		result.MaxProfiles = defaults.MaxProfiles
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
