// Package watch picks up exported profile documents as they land in a folder.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/profile-scraper/internal/ingestion"
)

// ProcessedFileName is the default processed list, kept inside the watched folder.
const ProcessedFileName = ".linkedin_processed.txt"

// Handler processes one file. It reports whether the file should be remembered as done;
// files that are not recognized are retried when they change again.
type Handler func(ctx context.Context, path string) (bool, error)

// Config configures a Watcher.
type Config struct {
	Dir string
	// Settle is how long a file must stay quiet before it is handled, so downloads in
	// progress are not read half-written.
	Settle    time.Duration
	Processed *ProcessedSet
	Handler   Handler
	Logger    *zerolog.Logger
}

// Watcher feeds new exports in one folder to a handler, one at a time.
type Watcher struct {
	cfg    Config
	logger zerolog.Logger
}

// New validates cfg and creates a watcher.
func New(cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, errors.New("watch directory is required")
	}
	if cfg.Handler == nil {
		return nil, errors.New("watch handler is required")
	}
	if cfg.Settle <= 0 {
		cfg.Settle = 2 * time.Second
	}
	if cfg.Processed == nil {
		set, err := LoadProcessed(filepath.Join(cfg.Dir, ProcessedFileName))
		if err != nil {
			return nil, err
		}
		cfg.Processed = set
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Watcher{cfg: cfg, logger: logger.With().Str("dir", cfg.Dir).Logger()}, nil
}

// Run handles existing unprocessed exports, then watches the folder until ctx ends.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.cfg.Dir); err != nil {
		return err
	}
	w.logger.Info().Msg("watching for profile exports")

	w.scanExisting(ctx)

	tick := max(w.cfg.Settle/4, 10*time.Millisecond)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.wants(e) {
				pending[e.Name] = time.Now()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watcher error")
		case now := <-ticker.C:
			for path, seen := range pending {
				if now.Sub(seen) < w.cfg.Settle {
					continue
				}
				delete(pending, path)
				w.handle(ctx, path)
			}
		}
	}
}

// wants filters events: any new PDF, or a rewritten one whose name marks it as an export.
func (w *Watcher) wants(e fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(e.Name), ".pdf") {
		return false
	}
	switch {
	case e.Has(fsnotify.Create):
		return true
	case e.Has(fsnotify.Write):
		return ingestion.IsProfileExport(e.Name)
	}
	return false
}

func (w *Watcher) scanExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		w.logger.Warn().Err(err).Msg("initial scan failed")
		return
	}
	for _, e := range entries {
		if e.IsDir() || !ingestion.IsProfileExport(e.Name()) {
			continue
		}
		w.handle(ctx, filepath.Join(w.cfg.Dir, e.Name()))
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	name := filepath.Base(path)
	if w.cfg.Processed.Has(name) {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	w.logger.Info().Str("file", name).Msg("new export detected")

	done, err := w.cfg.Handler(ctx, path)
	if err != nil {
		w.logger.Warn().Err(err).Str("file", name).Msg("export failed")
		return
	}
	if !done {
		w.logger.Info().Str("file", name).Msg("not a profile export")
		return
	}
	if err := w.cfg.Processed.Mark(name); err != nil {
		w.logger.Warn().Err(err).Msg("failed to record processed file")
	}
}
