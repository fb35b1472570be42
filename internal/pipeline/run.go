// Package pipeline processes queues of exported profile documents: parse, upload the
// document, append the spreadsheet row, and store the record.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/profile-scraper/internal/ingestion"
	"github.com/jonathan/profile-scraper/internal/parsing"
	"github.com/jonathan/profile-scraper/internal/types"
)

// Steps of a file's processing, reported in ProgressEvent.Step.
const (
	StepParse   = "parse"
	StepResult  = "result"
	StepSummary = "summary"
)

// ProgressEvent represents a progress update while a queue is processed
type ProgressEvent struct {
	Step     string           `json:"step"`
	Message  string           `json:"message"`
	Severity types.Severity   `json:"severity"`
	File     string           `json:"file,omitempty"`
	Index    int              `json:"index"`
	Total    int              `json:"total"`
	Status   types.ItemStatus `json:"status,omitempty"`
	Icon     string           `json:"icon,omitempty"`
	Content  any              `json:"content,omitempty"`
}

// ProgressCallback is called when queue progress occurs
type ProgressCallback func(event ProgressEvent)

// Publisher uploads a source document and appends the profile's row. It returns the
// profile with its document link attached.
type Publisher interface {
	Publish(ctx context.Context, p *types.Profile, name string, doc []byte) (*types.Profile, error)
}

// Persister stores a profile, upserting by its key.
type Persister interface {
	Persist(ctx context.Context, p *types.Profile) error
}

// Appender writes a profile row to a local workbook.
type Appender interface {
	Append(p *types.Profile, parsedAt time.Time) error
}

// Options holds the sinks and hooks of a queue run. Every sink is optional.
type Options struct {
	Publisher    Publisher
	Store        Persister
	Workbook     Appender
	ParseOptions []parsing.Option
	OnProgress   ProgressCallback
	Now          func() time.Time
}

// FileResult is the outcome of one queued file.
type FileResult struct {
	Path    string           `json:"path"`
	Status  types.ItemStatus `json:"status"`
	Profile *types.Profile   `json:"profile,omitempty"`
	Err     error            `json:"-"`
}

// MarshalJSON adds the error text, which error values do not encode themselves.
func (r FileResult) MarshalJSON() ([]byte, error) {
	type plain FileResult
	out := struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain: plain(r)}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// Summary aggregates a queue run.
type Summary struct {
	Files     []FileResult   `json:"files"`
	Succeeded int            `json:"succeeded"`
	Total     int            `json:"total"`
	Message   string         `json:"message"`
	Severity  types.Severity `json:"severity"`
}

func (o *Options) emit(e ProgressEvent) {
	if o.OnProgress != nil {
		o.OnProgress(e)
	}
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// ProcessFiles handles files one after another, in order. A file that fails is marked
// failed and the queue moves on. A document that is read but not recognized is marked
// partial and is neither uploaded nor stored. Cancelling ctx stops the queue between
// files; the summary covers the files handled so far.
func ProcessFiles(ctx context.Context, files []string, opts Options) (*Summary, error) {
	sum := &Summary{Total: len(files)}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			finish(&opts, sum)
			return sum, err
		}
		name := filepath.Base(path)
		opts.emit(ProgressEvent{
			Step:     StepParse,
			Message:  fmt.Sprintf("Processing %d/%d: %s", i+1, len(files), name),
			Severity: types.SeverityInfo,
			File:     path,
			Index:    i + 1,
			Total:    len(files),
			Status:   types.ItemPending,
			Icon:     types.ItemPending.Icon(),
		})

		res := processFile(ctx, &opts, path)
		if res.Err != nil {
			log.Warn().Err(res.Err).Str("file", path).Msg("file failed")
		}
		if res.Err == nil && res.Profile != nil {
			sum.Succeeded++
		}
		sum.Files = append(sum.Files, res)

		severity := types.SeveritySuccess
		msg := fmt.Sprintf("Processed %s", name)
		switch {
		case res.Err != nil:
			severity = types.SeverityError
			msg = fmt.Sprintf("Failed %s: %v", name, res.Err)
		case res.Profile == nil:
			severity = types.SeverityWarning
			msg = fmt.Sprintf("Not a recognized profile export: %s", name)
		}
		opts.emit(ProgressEvent{
			Step:     StepResult,
			Message:  msg,
			Severity: severity,
			File:     path,
			Index:    i + 1,
			Total:    len(files),
			Status:   res.Status,
			Icon:     res.Status.Icon(),
			Content:  res.Profile,
		})
	}

	finish(&opts, sum)
	return sum, nil
}

func finish(opts *Options, sum *Summary) {
	sum.Message = fmt.Sprintf("Processed %d/%d files successfully!", sum.Succeeded, sum.Total)
	sum.Severity = types.SeverityError
	if sum.Succeeded > 0 {
		sum.Severity = types.SeveritySuccess
	}
	opts.emit(ProgressEvent{
		Step:     StepSummary,
		Message:  sum.Message,
		Severity: sum.Severity,
		Index:    len(sum.Files),
		Total:    sum.Total,
		Content:  sum,
	})
}

func processFile(ctx context.Context, opts *Options, path string) FileResult {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Status: types.ItemFailed, Err: &ingestion.PDFError{Path: path, Message: "failed to read file", Cause: err}}
	}

	name := filepath.Base(path)
	parsed := ingestion.ParseBytes(raw, name, opts.ParseOptions...)
	if parsed.Err != nil {
		return FileResult{Path: path, Status: types.ItemFailed, Err: parsed.Err}
	}
	if parsed.Profile == nil {
		return FileResult{Path: path, Status: types.ItemPartial}
	}

	p := parsed.Profile
	if opts.Publisher != nil {
		if p, err = opts.Publisher.Publish(ctx, p, name, raw); err != nil {
			return FileResult{Path: path, Status: types.ItemFailed, Profile: parsed.Profile, Err: fmt.Errorf("upload failed: %w", err)}
		}
	}
	if opts.Store != nil {
		if err := opts.Store.Persist(ctx, p); err != nil {
			return FileResult{Path: path, Status: types.ItemFailed, Profile: p, Err: fmt.Errorf("store failed: %w", err)}
		}
	}
	if opts.Workbook != nil {
		if err := opts.Workbook.Append(p, opts.now()); err != nil {
			return FileResult{Path: path, Status: types.ItemFailed, Profile: p, Err: fmt.Errorf("export failed: %w", err)}
		}
	}

	status := types.ItemSuccess
	if p.IsPartial() {
		status = types.ItemPartial
	}
	return FileResult{Path: path, Status: status, Profile: p}
}

// ProcessDir queues every PDF in dir, sorted by name.
func ProcessDir(ctx context.Context, dir string, opts Options) (*Summary, error) {
	files, err := ingestion.ListPDFs(dir)
	if err != nil {
		return nil, err
	}
	return ProcessFiles(ctx, files, opts)
}
