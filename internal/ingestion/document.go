package ingestion

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/profile-scraper/internal/fetch"
	"github.com/jonathan/profile-scraper/internal/parsing"
	"github.com/jonathan/profile-scraper/internal/platform"
	"github.com/jonathan/profile-scraper/internal/types"
)

// Result is the outcome of parsing one document. Profile is nil when the document was
// read but not recognized as an exported profile.
type Result struct {
	Path     string
	Profile  *types.Profile
	Metadata *Metadata
	Err      error
}

// Status maps the result onto the per-item status vocabulary.
func (r Result) Status() types.ItemStatus {
	switch {
	case r.Err != nil:
		return types.ItemFailed
	case r.Profile.IsPartial():
		return types.ItemPartial
	default:
		return types.ItemSuccess
	}
}

// ParseBytes linearizes and extracts an in-memory PDF. label becomes the record's
// source document name.
func ParseBytes(raw []byte, label string, opts ...parsing.Option) Result {
	doc, err := ReadPDFBytes(raw)
	if err != nil {
		if pdfErr, ok := err.(*PDFError); ok {
			pdfErr.Path = label
		}
		return Result{Path: label, Err: err}
	}
	meta := NewMetadata(raw, doc.Pages, doc.Text)
	meta.Path = label
	return Result{
		Path:     label,
		Profile:  parsing.ExtractProfile(doc.Text, label, opts...),
		Metadata: meta,
	}
}

// ParseFile reads the PDF at p and extracts its profile.
func ParseFile(p string, opts ...parsing.Option) Result {
	raw, err := os.ReadFile(p)
	if err != nil {
		return Result{Path: p, Err: &PDFError{Path: p, Message: "failed to read file", Cause: err}}
	}
	res := ParseBytes(raw, filepath.Base(p), opts...)
	res.Path = p
	if res.Metadata != nil {
		res.Metadata.Path = p
	}
	return res
}

// ParseURL downloads a PDF and extracts its profile.
func ParseURL(ctx context.Context, urlStr string, opts ...parsing.Option) Result {
	doc, err := fetch.Document(ctx, urlStr, nil)
	if err != nil {
		return Result{Path: urlStr, Err: err}
	}
	res := ParseBytes(doc.Body, path.Base(urlStr), opts...)
	res.Path = urlStr
	if res.Metadata != nil {
		res.Metadata.URL = urlStr
	}
	return res
}

// ListPDFs returns the PDF files directly inside dir, sorted by name.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// ParseFiles parses files with at most workers in flight. Results keep the input order;
// a failing file does not stop the others.
func ParseFiles(ctx context.Context, files []string, workers int, opts ...parsing.Option) ([]Result, error) {
	results := make([]Result, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i, f := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = ParseFile(f, opts...)
			if results[i].Err != nil {
				log.Warn().Err(results[i].Err).Str("file", f).Msg("document failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ParseDir parses every PDF in dir.
func ParseDir(ctx context.Context, dir string, workers int, opts ...parsing.Option) ([]Result, error) {
	files, err := ListPDFs(dir)
	if err != nil {
		return nil, err
	}
	return ParseFiles(ctx, files, workers, opts...)
}

// IsProfileExport reports whether a file name looks like an exported profile:
// "Profile*.pdf" or any PDF whose name mentions the platform.
func IsProfileExport(name string) bool {
	base := filepath.Base(name)
	if !strings.EqualFold(filepath.Ext(base), ".pdf") {
		return false
	}
	return strings.HasPrefix(base, "Profile") || strings.Contains(strings.ToLower(base), platform.PlatformName)
}
