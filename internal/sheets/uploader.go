// Package sheets is the upload sink: it stores exported documents in Drive and appends
// one row per profile to a Google Sheet.
package sheets

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/jonathan/profile-scraper/internal/export"
	"github.com/jonathan/profile-scraper/internal/types"
)

// DefaultFolderName is the Drive folder uploaded documents go to.
const DefaultFolderName = "LinkedIn PDFs"

const folderMimeType = "application/vnd.google-apps.folder"

// Config configures an Uploader.
type Config struct {
	SheetID    string
	FolderName string
	// CredentialsFile is a service account or OAuth client JSON. Empty uses
	// application default credentials.
	CredentialsFile string
	Attempts        uint
	Delay           time.Duration
	Logger          *zerolog.Logger
}

// Uploader writes documents to Drive and rows to a sheet. It is safe for sequential use
// by one pipeline; Prepare runs once.
type Uploader struct {
	drive  *drive.Service
	sheets *gsheets.Service
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	prepareOnce sync.Once
	prepareErr  error
	folderID    string
}

// New creates an uploader. Extra client options (endpoint, HTTP client) are passed to
// both services.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Uploader, error) {
	if cfg.SheetID == "" {
		return nil, fmt.Errorf("sheet id is required")
	}
	if cfg.FolderName == "" {
		cfg.FolderName = DefaultFolderName
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.Delay == 0 {
		cfg.Delay = time.Second
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	sheetsSvc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Uploader{
		drive:  driveSvc,
		sheets: sheetsSvc,
		cfg:    cfg,
		logger: logger.With().Str("component", "sheets").Logger(),
		now:    time.Now,
	}, nil
}

// do runs an API call with retries on transient failures.
func do[T any](ctx context.Context, u *Uploader, op string, call func() (T, error)) (T, error) {
	v, err := retry.DoWithData(
		call,
		retry.Context(ctx),
		retry.Attempts(u.cfg.Attempts),
		retry.Delay(u.cfg.Delay),
		retry.MaxJitter(u.cfg.Delay/2),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			u.logger.Warn().Str("op", op).Uint("attempt", n+1).Err(err).Msg("retrying")
		}),
	)
	if err != nil {
		return v, &UploadError{Op: op, Cause: err}
	}
	return v, nil
}

// Prepare finds or creates the upload folder and writes the header row to an empty sheet.
// Later calls return the first call's result.
func (u *Uploader) Prepare(ctx context.Context) error {
	u.prepareOnce.Do(func() {
		u.folderID, u.prepareErr = u.folder(ctx)
		if u.prepareErr == nil {
			u.prepareErr = u.initSheet(ctx)
		}
	})
	return u.prepareErr
}

func (u *Uploader) folder(ctx context.Context) (string, error) {
	q := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false",
		strings.ReplaceAll(u.cfg.FolderName, "'", `\'`), folderMimeType)
	list, err := do(ctx, u, "find folder", func() (*drive.FileList, error) {
		return u.drive.Files.List().Q(q).Fields("files(id)").Context(ctx).Do()
	})
	if err != nil {
		return "", err
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	created, err := do(ctx, u, "create folder", func() (*drive.File, error) {
		return u.drive.Files.Create(&drive.File{Name: u.cfg.FolderName, MimeType: folderMimeType}).
			Fields("id").Context(ctx).Do()
	})
	if err != nil {
		return "", err
	}
	u.logger.Info().Str("folder", u.cfg.FolderName).Msg("created upload folder")
	return created.Id, nil
}

func (u *Uploader) initSheet(ctx context.Context) error {
	first, err := do(ctx, u, "read sheet", func() (*gsheets.ValueRange, error) {
		return u.sheets.Spreadsheets.Values.Get(u.cfg.SheetID, "A1:A1").Context(ctx).Do()
	})
	if err != nil {
		return err
	}
	if len(first.Values) > 0 {
		return nil
	}
	header := &gsheets.ValueRange{Values: [][]any{export.HeaderRow()}}
	_, err = do(ctx, u, "write header", func() (*gsheets.UpdateValuesResponse, error) {
		return u.sheets.Spreadsheets.Values.Update(u.cfg.SheetID, "A1:"+export.LastColumn()+"1", header).
			ValueInputOption("RAW").Context(ctx).Do()
	})
	return err
}

// UploadDocument stores a document in the upload folder, shares it read-only with anyone
// holding the link, and returns the link.
func (u *Uploader) UploadDocument(ctx context.Context, name string, body []byte) (string, error) {
	if err := u.Prepare(ctx); err != nil {
		return "", err
	}
	file, err := do(ctx, u, "upload document", func() (*drive.File, error) {
		meta := &drive.File{Name: name, Parents: []string{u.folderID}}
		return u.drive.Files.Create(meta).Media(bytes.NewReader(body)).
			Fields("id, webViewLink").Context(ctx).Do()
	})
	if err != nil {
		return "", err
	}

	_, err = do(ctx, u, "share document", func() (*drive.Permission, error) {
		return u.drive.Permissions.Create(file.Id, &drive.Permission{Role: "reader", Type: "anyone"}).
			Context(ctx).Do()
	})
	if err != nil {
		return "", err
	}
	u.logger.Debug().Str("name", name).Str("link", file.WebViewLink).Msg("document uploaded")
	return file.WebViewLink, nil
}

// AppendProfile appends p as one row.
func (u *Uploader) AppendProfile(ctx context.Context, p *types.Profile) error {
	if err := u.Prepare(ctx); err != nil {
		return err
	}
	rows := &gsheets.ValueRange{Values: [][]any{export.Row(p, u.now())}}
	_, err := do(ctx, u, "append row", func() (*gsheets.AppendValuesResponse, error) {
		return u.sheets.Spreadsheets.Values.Append(u.cfg.SheetID, "A:"+export.LastColumn(), rows).
			ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	})
	return err
}

// DocumentName names an uploaded document after the person, falling back to the local
// file name when the profile has no name.
func DocumentName(p *types.Profile, fallback string) string {
	if name := types.SanitizeFilename(p.FullName); name != "" {
		return name + ".pdf"
	}
	return fallback
}

// Publish uploads the source document (when given) and appends the profile row carrying
// its link. The returned profile has PDFLink set.
func (u *Uploader) Publish(ctx context.Context, p *types.Profile, name string, doc []byte) (*types.Profile, error) {
	if len(doc) > 0 {
		link, err := u.UploadDocument(ctx, DocumentName(p, name), doc)
		if err != nil {
			return nil, err
		}
		p = p.WithPDFLink(link)
	}
	if err := u.AppendProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
