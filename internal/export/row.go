// Package export lays profiles out as spreadsheet rows. Column order is fixed and shared
// by the hosted sheet and local workbooks.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/profile-scraper/internal/types"
)

// Headers is the header row, in column order.
var Headers = []string{
	"First Name",
	"Last Name",
	"Name (LinkedIn)",
	"Headline",
	"Title",
	"Company",
	"Location",
	"School",
	"Degree",
	"Skills",
	"Experience",
	"PDF Link",
	"Parsed At",
}

// Column indices of the linked cells.
const (
	nameColumn = 2
	pdfColumn  = 11
)

// PDFLabel is the text shown for the uploaded document link.
const PDFLabel = "View PDF"

// Cell is one spreadsheet cell. A non-empty Link renders Text as a hyperlink.
type Cell struct {
	Text string
	Link string
}

// Cells lays p out in Headers order.
func Cells(p *types.Profile, parsedAt time.Time) []Cell {
	cells := []Cell{
		{Text: p.FirstName},
		{Text: p.LastName},
		{Text: p.FullName, Link: p.ProfileURL},
		{Text: p.Headline},
		{Text: p.Title},
		{Text: p.Company},
		{Text: p.Location},
		{Text: p.School},
		{Text: p.Degree},
		{Text: p.Skills},
		{Text: p.ExperienceSummary()},
		{},
		{Text: parsedAt.UTC().Format(time.RFC3339)},
	}
	if p.PDFLink != "" {
		cells[pdfColumn] = Cell{Text: PDFLabel, Link: p.PDFLink}
	}
	return cells
}

// Row renders p as user-entered values: linked cells become HYPERLINK formulas and every
// other cell is a literal, so scraped text is never evaluated.
func Row(p *types.Profile, parsedAt time.Time) []any {
	cells := Cells(p, parsedAt)
	row := make([]any, len(cells))
	for i, c := range cells {
		if c.Link != "" {
			row[i] = Hyperlink(c.Link, c.Text)
		} else {
			row[i] = Literal(c.Text)
		}
	}
	return row
}

// HeaderRow returns Headers as a row value.
func HeaderRow() []any {
	row := make([]any, len(Headers))
	for i, h := range Headers {
		row[i] = h
	}
	return row
}

// Hyperlink builds a HYPERLINK formula, escaping quotes in both arguments.
func Hyperlink(url, label string) string {
	return fmt.Sprintf(`=HYPERLINK("%s", "%s")`, escapeQuotes(url), escapeQuotes(label))
}

// Literal keeps a user-entered value from being parsed as a formula by prefixing text
// that starts with a formula character with an apostrophe.
func Literal(s string) string {
	if s != "" && strings.ContainsRune("=+-@", rune(s[0])) {
		return "'" + s
	}
	return s
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

// LastColumn is the letter of the final column (the sheet range is A:LastColumn).
func LastColumn() string {
	return string(rune('A' + len(Headers) - 1))
}
