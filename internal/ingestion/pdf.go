package ingestion

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Document is a linearized PDF.
type Document struct {
	Text  string
	Pages int
	Raw   []byte
}

// ReadPDF reads and linearizes the PDF at path.
func ReadPDF(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &PDFError{Path: path, Message: "failed to read file", Cause: err}
	}
	doc, err := ReadPDFBytes(raw)
	if err != nil {
		if pdfErr, ok := err.(*PDFError); ok {
			pdfErr.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// ReadPDFBytes linearizes an in-memory PDF: one line per text row, rows top to bottom,
// pages in order. The PDF reader panics on some malformed streams; that is reported as
// a *PDFError like any other read failure.
func ReadPDFBytes(raw []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &PDFError{Message: "malformed document", Cause: fmt.Errorf("%v", r)}
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, &PDFError{Message: "not a readable PDF", Cause: err}
	}

	var lines []string
	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		lines = append(lines, pageText(page)...)
	}

	return &Document{
		Text:  CleanText(strings.Join(lines, "\n")),
		Pages: pages,
		Raw:   raw,
	}, nil
}

// rowTolerance is the largest vertical offset, in points, between glyphs of one row.
const rowTolerance = 5

// pageText linearizes one page. Content tracks the full text state (Tm, Td, TD, T*),
// so every glyph carries its real position.
func pageText(page pdf.Page) []string {
	return glyphRows(page.Content().Text)
}

// glyphRows groups glyphs into rows top to bottom (PDF y grows upwards). A glyph more
// than rowTolerance away from the row's first glyph starts a new row. Within a row
// glyphs are ordered left to right.
func glyphRows(glyphs []pdf.Text) []string {
	glyphs = append([]pdf.Text(nil), glyphs...)
	sort.SliceStable(glyphs, func(a, b int) bool { return glyphs[a].Y > glyphs[b].Y })

	var lines []string
	for start := 0; start < len(glyphs); {
		end := start + 1
		for end < len(glyphs) && math.Abs(glyphs[end].Y-glyphs[start].Y) <= rowTolerance {
			end++
		}
		row := glyphs[start:end]
		sort.SliceStable(row, func(a, b int) bool { return row[a].X < row[b].X })
		lines = append(lines, joinGlyphs(row))
		start = end
	}
	return lines
}

// joinGlyphs concatenates a row. A glyph that starts further right than the previous
// glyph's width is a separate word and gets a space unless either side already
// carries whitespace.
func joinGlyphs(row []pdf.Text) string {
	var b strings.Builder
	for i, g := range row {
		if i > 0 {
			prev := row[i-1]
			gap := g.X - (prev.X + prev.W)
			if gap > prev.W && gap > 0 && !endsWithSpace(b.String()) && !startsWithSpace(g.S) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
	}
	return b.String()
}

func endsWithSpace(s string) bool {
	if s == "" {
		return true
	}
	return unicode.IsSpace(rune(s[len(s)-1]))
}

func startsWithSpace(s string) bool {
	return s == "" || unicode.IsSpace(rune(s[0]))
}
