package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func exportLines(name string) []string {
	return []string{
		"www.linkedin.com/in/" + name + " (LinkedIn)",
		"Contact",
		"Jordan Lee",
		"Platform Engineer at Umbrella | Cloud",
		"Austin, Texas Area",
	}
}

type fakePublisher struct {
	fail      map[string]error
	published []string
}

func (f *fakePublisher) Publish(_ context.Context, p *types.Profile, name string, doc []byte) (*types.Profile, error) {
	if err := f.fail[name]; err != nil {
		return nil, err
	}
	f.published = append(f.published, name)
	return p.WithPDFLink("https://drive.example/" + name), nil
}

type fakeStore struct{ saved []*types.Profile }

func (f *fakeStore) Persist(_ context.Context, p *types.Profile) error {
	f.saved = append(f.saved, p)
	return nil
}

type fakeWorkbook struct{ rows int }

func (f *fakeWorkbook) Append(*types.Profile, time.Time) error {
	f.rows++
	return nil
}

func TestProcessFiles_StatusesAndSummary(t *testing.T) {
	dir := t.TempDir()
	good := writePDF(t, dir, "a-Profile.pdf", exportLines("jordanlee")...)
	uploadFails := writePDF(t, dir, "b-Profile.pdf", exportLines("other")...)
	unrecognized := writePDF(t, dir, "c-resume.pdf", "Jordan Lee", "Resume")
	broken := filepath.Join(dir, "d-broken.pdf")
	require.NoError(t, os.WriteFile(broken, []byte("not a pdf"), 0o644))

	pub := &fakePublisher{fail: map[string]error{"b-Profile.pdf": errors.New("quota exceeded")}}
	store := &fakeStore{}
	book := &fakeWorkbook{}
	var events []ProgressEvent

	sum, err := ProcessFiles(context.Background(), []string{good, uploadFails, unrecognized, broken}, Options{
		Publisher:  pub,
		Store:      store,
		Workbook:   book,
		OnProgress: func(e ProgressEvent) { events = append(events, e) },
	})
	require.NoError(t, err)

	require.Len(t, sum.Files, 4)
	assert.Equal(t, types.ItemSuccess, sum.Files[0].Status)
	assert.Equal(t, types.ItemFailed, sum.Files[1].Status)
	assert.ErrorContains(t, sum.Files[1].Err, "quota exceeded")
	assert.Equal(t, types.ItemPartial, sum.Files[2].Status)
	assert.Nil(t, sum.Files[2].Profile)
	assert.Equal(t, types.ItemFailed, sum.Files[3].Status)

	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, "Processed 1/4 files successfully!", sum.Message)
	assert.Equal(t, types.SeveritySuccess, sum.Severity)

	assert.Equal(t, []string{"a-Profile.pdf"}, pub.published)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "https://drive.example/a-Profile.pdf", store.saved[0].PDFLink)
	assert.Equal(t, "https://www.linkedin.com/in/jordanlee", store.saved[0].ProfileURL)
	assert.Equal(t, 1, book.rows)

	require.Len(t, events, 9)
	assert.Equal(t, "Processing 1/4: a-Profile.pdf", events[0].Message)
	assert.Equal(t, "✅", events[1].Icon)
	assert.Equal(t, "❌", events[3].Icon)
	assert.Equal(t, "⚠️", events[5].Icon)
	assert.Equal(t, StepSummary, events[8].Step)
}

func TestProcessFiles_HeadlinePosition(t *testing.T) {
	dir := t.TempDir()
	p := writePDF(t, dir, "Profile.pdf", exportLines("x")...)
	pub := &fakePublisher{}

	sum, err := ProcessFiles(context.Background(), []string{p}, Options{Publisher: pub})
	require.NoError(t, err)
	assert.Equal(t, types.ItemSuccess, sum.Files[0].Status)
	assert.Equal(t, "Platform Engineer", sum.Files[0].Profile.Title)
	assert.Equal(t, "Umbrella", sum.Files[0].Profile.Company)
	assert.Equal(t, "Austin, Texas Area", sum.Files[0].Profile.Location)
}

func TestProcessFiles_NothingSucceeded(t *testing.T) {
	sum, err := ProcessFiles(context.Background(), []string{filepath.Join(t.TempDir(), "missing.pdf")}, Options{})
	require.NoError(t, err)
	assert.Equal(t, types.ItemFailed, sum.Files[0].Status)
	assert.Equal(t, types.SeverityError, sum.Severity)
	assert.Equal(t, "Processed 0/1 files successfully!", sum.Message)
}

func TestProcessFiles_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := ProcessFiles(ctx, []string{"a.pdf", "b.pdf"}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sum.Files)
	assert.Equal(t, 2, sum.Total)
}

func TestProcessDir(t *testing.T) {
	dir := t.TempDir()
	writePDF(t, dir, "b-Profile.pdf", exportLines("b")...)
	writePDF(t, dir, "a-Profile.pdf", exportLines("a")...)

	sum, err := ProcessDir(context.Background(), dir, Options{})
	require.NoError(t, err)
	require.Len(t, sum.Files, 2)
	assert.Equal(t, "a-Profile.pdf", filepath.Base(sum.Files[0].Path))
	assert.Equal(t, 2, sum.Succeeded)
}

func TestFileResult_JSONCarriesError(t *testing.T) {
	data, err := json.Marshal(FileResult{Path: "x.pdf", Status: types.ItemFailed, Err: errors.New("quota exceeded")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"x.pdf","status":"failed","error":"quota exceeded"}`, string(data))
}
