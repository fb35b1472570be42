package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-scraper/internal/db"
	"github.com/jonathan/profile-scraper/internal/export"
	"github.com/jonathan/profile-scraper/internal/pipeline"
	"github.com/jonathan/profile-scraper/internal/types"
)

func writePDF(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 11)
	doc.AddPage()
	for _, line := range lines {
		doc.CellFormat(0, 7, line, "", 1, "L", false, 0, "")
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

var exportLines = []string{
	"www.linkedin.com/in/jordanlee (LinkedIn)",
	"Contact",
	"Jordan Lee",
	"Platform Engineer at Umbrella | Cloud",
	"Austin, Texas Area",
}

func noEnv(string) string { return "" }

func TestLoadConfig_Layers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sheet_id: from-file\nmax_profiles: 5\n"), 0o644))

	env := map[string]string{"SHEET_ID": "from-env"}
	cfg, err := loadConfig(path, func(k string) string { return env[k] })
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.SheetID)
	assert.Equal(t, 5, cfg.MaxProfiles)
	assert.Equal(t, "profiles.db", cfg.SQLitePath, "defaults fill the rest")
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.json"), noEnv)
	assert.Error(t, err)

	_, err = loadConfig("", func(k string) string {
		if k == "DATABASE_URL" {
			return "mysql://db"
		}
		return ""
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestCollectInputs(t *testing.T) {
	dir := t.TempDir()
	a := writePDF(t, dir, "a-Profile.pdf", exportLines...)
	b := writePDF(t, dir, "b.pdf", "hello")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	files, err := collectInputs([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files)

	files, err = collectInputs([]string{a})
	require.NoError(t, err)
	assert.Equal(t, []string{a}, files)

	_, err = collectInputs([]string{filepath.Join(dir, "nope.pdf")})
	assert.Error(t, err)

	_, err = collectInputs([]string{t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no profile exports found")
}

func TestFileHandler(t *testing.T) {
	dir := t.TempDir()
	store := db.NewMemoryStore()
	handler := fileHandler(pipeline.Options{Store: db.Persister{Store: store}})
	ctx := context.Background()

	done, err := handler(ctx, writePDF(t, dir, "Profile.pdf", exportLines...))
	require.NoError(t, err)
	assert.True(t, done)
	records, err := store.ListProfiles(ctx, db.ProfileFilters{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Jordan Lee", records[0].Profile.FullName)

	done, err = handler(ctx, writePDF(t, dir, "resume.pdf", "Jordan Lee", "Resume"))
	require.NoError(t, err)
	assert.False(t, done, "unrecognized documents are not marked")

	broken := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(broken, []byte("not a pdf"), 0o644))
	done, err = handler(ctx, broken)
	assert.Error(t, err)
	assert.False(t, done)
}

func TestSavingWorkbook_SavesEachRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	wb, err := export.OpenXLSX(path)
	require.NoError(t, err)
	defer wb.Close()

	require.NoError(t, savingWorkbook{wb}.Append(&types.Profile{FullName: "Jordan Lee"}, time.Now()))
	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, 1, wb.Rows())
}

func TestParseCommand_DryRunJSON(t *testing.T) {
	dir := t.TempDir()
	writePDF(t, dir, "a-Profile.pdf", exportLines...)
	writePDF(t, dir, "b.pdf", "Quarterly report")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"parse", "--dry-run", "--json", "--workers", "2", dir})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		parseDryRun, parseJSON, parseWorkers = false, false, 0
	})
	require.NoError(t, rootCmd.Execute())

	var files []parsedFile
	require.NoError(t, json.Unmarshal(out.Bytes(), &files))
	require.Len(t, files, 2)
	assert.Equal(t, types.ItemSuccess, files[0].Status)
	require.NotNil(t, files[0].Profile)
	assert.Equal(t, "Jordan Lee", files[0].Profile.FullName)
	assert.Equal(t, 1, files[0].Pages)
	assert.Equal(t, types.ItemPartial, files[1].Status)
	assert.Nil(t, files[1].Profile)
}

func TestBulkConfig_FlagsOverrideConfig(t *testing.T) {
	saved := appConfig
	t.Cleanup(func() { appConfig = saved })
	appConfig.MaxProfiles = 25
	appConfig.AutoScroll = true

	cfg := bulkConfig(bulkCmd)
	assert.Equal(t, 25, cfg.MaxProfiles)
	assert.True(t, cfg.AutoScroll)

	require.NoError(t, bulkCmd.Flags().Set("max", "3"))
	t.Cleanup(func() { bulkMax = 0 })
	cfg = bulkConfig(bulkCmd)
	assert.Equal(t, 3, cfg.MaxProfiles)
	assert.True(t, cfg.AutoScroll, "unset flags keep the configured value")
}

func TestRunBulk_RequiresURL(t *testing.T) {
	bulkURL = ""
	err := runBulk(bulkCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--url is required")
}
