package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"sheet_id": "sheet-123",
		"max_profiles": 25,
		"auto_scroll": true,
		"watch_settle": "3s",
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "sheet-123", cfg.SheetID)
	assert.Equal(t, 25, cfg.MaxProfiles)
	assert.True(t, cfg.AutoScroll)
	assert.True(t, cfg.Verbose)

	settle, err := cfg.Settle()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, settle)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
database_url: postgres://localhost/profiles
open_profiles: true
port: 9090
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/profiles", cfg.DatabaseURL)
	assert.True(t, cfg.OpenProfiles)
	assert.Equal(t, 9090, cfg.Port)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "config.json", `{ invalid json }`))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "config.yml", "port: [1, 2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DATABASE_URL": "postgres://db/profiles",
		"SHEET_ID":     "from-env",
		"WATCH_DIR":    "/downloads",
		"PORT":         "7070",
	}
	cfg := Config{SheetID: "from-file", SQLitePath: "local.db"}

	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, "postgres://db/profiles", cfg.DatabaseURL)
	assert.Equal(t, "from-env", cfg.SheetID)
	assert.Equal(t, "/downloads", cfg.WatchDir)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "local.db", cfg.SQLitePath, "unset variables leave fields alone")

	env = map[string]string{"PORT": "http"}
	assert.Error(t, cfg.ApplyEnv(func(k string) string { return env[k] }))
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, "creds.json", "{}")

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty", cfg: Config{}},
		{name: "full", cfg: Config{DatabaseURL: "postgresql://x/y", WatchDir: dir, CredentialsFile: file, WatchSettle: "500ms", Port: 8080}},
		{name: "bad database url", cfg: Config{DatabaseURL: "mysql://x"}, wantErr: "database_url"},
		{name: "negative max", cfg: Config{MaxProfiles: -1}, wantErr: "max_profiles"},
		{name: "negative workers", cfg: Config{Workers: -2}, wantErr: "workers"},
		{name: "port range", cfg: Config{Port: 70000}, wantErr: "port"},
		{name: "bad settle", cfg: Config{WatchSettle: "soon"}, wantErr: "watch_settle"},
		{name: "missing credentials", cfg: Config{CredentialsFile: filepath.Join(dir, "nope.json")}, wantErr: "credentials file not found"},
		{name: "watch dir is a file", cfg: Config{WatchDir: file}, wantErr: "watch directory not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{
		SheetID:     "mine",
		MaxProfiles: 10,
	}

	result := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "mine", result.SheetID)
	assert.Equal(t, 10, result.MaxProfiles)
	assert.Equal(t, "profiles.db", result.SQLitePath)
	assert.Equal(t, "LinkedIn PDFs", result.DriveFolder)
	assert.Equal(t, 8080, result.Port)
	assert.Equal(t, 4, result.Workers)
	assert.Empty(t, cfg.SQLitePath, "receiver is not modified")
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{XLSXPath: "out.xlsx", Port: 1234}
	result := cfg.MergeWithDefaults(Config{})
	assert.Equal(t, cfg, result)
}
