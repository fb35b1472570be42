package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/profile-scraper/internal/db"
	"github.com/jonathan/profile-scraper/internal/export"
	"github.com/jonathan/profile-scraper/internal/parsing"
	"github.com/jonathan/profile-scraper/internal/pipeline"
	"github.com/jonathan/profile-scraper/internal/sheets"
	"github.com/jonathan/profile-scraper/internal/types"
)

// sinkFlags are the output flags shared by parse and watch.
type sinkFlags struct {
	xlsx    string
	upload  bool
	sheetID string
	noStore bool
	simple  bool
}

// sinks holds opened outputs. close releases them in reverse order.
type sinks struct {
	options pipeline.Options
	closers []func()
}

func (s *sinks) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// savingWorkbook saves after every row so an interrupted run keeps what it parsed.
type savingWorkbook struct {
	*export.XLSXWriter
}

func (w savingWorkbook) Append(p *types.Profile, parsedAt time.Time) error {
	if err := w.XLSXWriter.Append(p, parsedAt); err != nil {
		return err
	}
	return w.Save()
}

func parseOptions(simple bool) []parsing.Option {
	if simple {
		return []parsing.Option{parsing.WithVariant(parsing.VariantSimple)}
	}
	return nil
}

// openStore opens the configured profile store.
func openStore(ctx context.Context) (db.Store, error) {
	return db.Open(ctx, appConfig.DatabaseURL, appConfig.SQLitePath)
}

// openSinks opens every output the flags and configuration ask for.
func openSinks(ctx context.Context, f sinkFlags) (*sinks, error) {
	s := &sinks{options: pipeline.Options{ParseOptions: parseOptions(f.simple)}}

	if !f.noStore {
		store, err := openStore(ctx)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, store.Close)
		s.options.Store = db.Persister{Store: store}
	}

	if path := orDefault(f.xlsx, appConfig.XLSXPath); path != "" {
		wb, err := export.OpenXLSX(path)
		if err != nil {
			s.close()
			return nil, err
		}
		s.closers = append(s.closers, func() {
			if err := wb.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close workbook")
			}
		})
		s.options.Workbook = savingWorkbook{wb}
	}

	if f.upload {
		sheetID := orDefault(f.sheetID, appConfig.SheetID)
		if sheetID == "" {
			s.close()
			return nil, fmt.Errorf("--upload needs a sheet id (use --sheet-id or set SHEET_ID)")
		}
		up, err := sheets.New(ctx, sheets.Config{
			SheetID:         sheetID,
			FolderName:      appConfig.DriveFolder,
			CredentialsFile: appConfig.CredentialsFile,
		})
		if err != nil {
			s.close()
			return nil, err
		}
		s.options.Publisher = up
	}
	return s, nil
}
