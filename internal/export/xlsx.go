package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/jonathan/profile-scraper/internal/types"
)

// SheetName is the worksheet profiles are written to.
const SheetName = "Profiles"

// XLSXWriter appends profile rows to a local workbook.
type XLSXWriter struct {
	path string
	file *excelize.File
	next int
}

// OpenXLSX opens the workbook at path, or starts a new one with the header row.
// Rows are appended after the last used row.
func OpenXLSX(path string) (*XLSXWriter, error) {
	f, err := excelize.OpenFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return newWorkbook(path)
	case err != nil:
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}

	if idx, _ := f.GetSheetIndex(SheetName); idx == -1 {
		if _, err := f.NewSheet(SheetName); err != nil {
			return nil, fmt.Errorf("failed to add sheet: %w", err)
		}
		w := &XLSXWriter{path: path, file: f, next: 1}
		return w, w.writeHeader()
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	w := &XLSXWriter{path: path, file: f, next: len(rows) + 1}
	if len(rows) == 0 {
		return w, w.writeHeader()
	}
	return w, nil
}

func newWorkbook(path string) (*XLSXWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	w := &XLSXWriter{path: path, file: f, next: 1}
	if err := w.writeHeader(); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(SheetName, "A", "B", 14)
	_ = f.SetColWidth(SheetName, "C", "D", 32)
	_ = f.SetColWidth(SheetName, "J", "K", 48)
	return w, nil
}

func (w *XLSXWriter) writeHeader() error {
	cell, _ := excelize.CoordinatesToCellName(1, w.next)
	if err := w.file.SetSheetRow(SheetName, cell, &Headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	w.next++
	return nil
}

// Append writes p as the next row. Linked cells carry a hyperlink to their target.
func (w *XLSXWriter) Append(p *types.Profile, parsedAt time.Time) error {
	for col, c := range Cells(p, parsedAt) {
		cell, _ := excelize.CoordinatesToCellName(col+1, w.next)
		if err := w.file.SetCellValue(SheetName, cell, c.Text); err != nil {
			return fmt.Errorf("failed to write %s: %w", cell, err)
		}
		if c.Link == "" {
			continue
		}
		if err := w.file.SetCellHyperLink(SheetName, cell, c.Link, "External"); err != nil {
			return fmt.Errorf("failed to link %s: %w", cell, err)
		}
	}
	w.next++
	return nil
}

// Rows returns the number of data rows (excluding the header).
func (w *XLSXWriter) Rows() int {
	return w.next - 2
}

// Save writes the workbook to its path.
func (w *XLSXWriter) Save() error {
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", w.path, err)
	}
	log.Debug().Str("path", w.path).Int("rows", w.Rows()).Msg("workbook saved")
	return nil
}

// Close releases the workbook.
func (w *XLSXWriter) Close() error {
	return w.file.Close()
}

// WriteXLSX writes profiles to a new workbook at path.
func WriteXLSX(path string, profiles []*types.Profile, parsedAt time.Time) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	w, err := OpenXLSX(path)
	if err != nil {
		return err
	}
	defer w.Close()
	for _, p := range profiles {
		if err := w.Append(p, parsedAt); err != nil {
			return err
		}
	}
	return w.Save()
}
