// Package types provides type definitions for structured data used throughout the profile-scraper system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"regexp"
	"strings"
	"time"
)

// Collection caps shared by both extractors.
const (
	MaxExperienceEntries = 10
	MaxEducationEntries  = 5
	MaxSchools           = 3
	MaxDegrees           = 3
	MaxCertifications    = 5
	MaxSummaryChars      = 500
	MaxAboutChars        = 2000
	MaxHeadlineChars     = 200
)

// Source identifies which extractor produced a profile.
type Source string

const (
	// SourcePDF is a profile parsed from an exported profile document
	SourcePDF Source = "pdf"
	// SourcePage is a profile extracted from a full profile page
	SourcePage Source = "page"
	// SourceCard is a profile extracted from a listing card (lower fidelity)
	SourceCard Source = "card"
)

// ExperienceEntry is one job row.
type ExperienceEntry struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Duration string `json:"duration"`
}

// EducationEntry is one school row.
type EducationEntry struct {
	School string `json:"school"`
	Degree string `json:"degree"`
}

// Profile is the canonical output record of every extractor.
// It is immutable after Build except for PDFLink, which the upload sink attaches via WithPDFLink.
type Profile struct {
	FullName       string            `json:"full_name"`
	FirstName      string            `json:"first_name"`
	LastName       string            `json:"last_name"`
	Headline       string            `json:"headline"`
	Title          string            `json:"title"`
	Company        string            `json:"company"`
	Location       string            `json:"location"`
	School         string            `json:"school"`
	Degree         string            `json:"degree"`
	Skills         string            `json:"skills"`
	Summary        string            `json:"summary,omitempty"`
	About          string            `json:"about,omitempty"`
	Certifications string            `json:"certifications,omitempty"`
	ProfileURL     string            `json:"profile_url"`
	SourceDocument string            `json:"source_document,omitempty"`
	Source         Source            `json:"source"`
	ExtractedAt    time.Time         `json:"extracted_at"`
	Experience     []ExperienceEntry `json:"experience"`
	Education      []EducationEntry  `json:"education"`
	PDFLink        string            `json:"pdf_link,omitempty"`
}

// WithPDFLink returns a copy of the profile carrying the uploaded document reference.
func (p Profile) WithPDFLink(link string) *Profile {
	p.Experience = append([]ExperienceEntry(nil), p.Experience...)
	p.Education = append([]EducationEntry(nil), p.Education...)
	p.PDFLink = link
	return &p
}

// IsPartial reports whether the record is missing its name, the signal used for the ⚠ status.
func (p *Profile) IsPartial() bool {
	return p == nil || p.FirstName == ""
}

// Key returns the upsert key: the profile URL, or the source document when no URL was found.
func (p *Profile) Key() string {
	if p.ProfileURL != "" {
		return p.ProfileURL
	}
	if p.SourceDocument != "" {
		return "file:" + p.SourceDocument
	}
	return "name:" + strings.ToLower(p.FullName)
}

// ExperienceSummary renders the experience list the way the spreadsheet column expects it.
func (p *Profile) ExperienceSummary() string {
	parts := make([]string, 0, len(p.Experience))
	for _, e := range p.Experience {
		s := e.Title + " @ " + e.Company
		if e.Duration != "" {
			s += " (" + e.Duration + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " | ")
}

// credentialSuffix matches the first credential or comma that ends the personal name.
var credentialSuffix = regexp.MustCompile(`\s+(?:MBA|CSC|LLQP|CPA|CFA|PhD|MD|JD|PMP|CFP)\b|\s*,`)

// StripCredentials removes trailing credentials ("John Smith, CPA", "Jane Doe MBA").
func StripCredentials(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if loc := credentialSuffix.FindStringIndex(name); loc != nil {
		name = name[:loc[0]]
	}
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(name), ","))
}

// SplitName strips credentials and splits the result into first name and the remaining tokens.
func SplitName(raw string) (full, first, last string) {
	full = StripCredentials(raw)
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", "", ""
	case 1:
		return full, parts[0], ""
	default:
		return full, parts[0], strings.Join(parts[1:], " ")
	}
}

var unsafeFilenameRe = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename makes a name safe for use as a file name: reserved characters are
// dropped, whitespace runs become "_", and the result is capped at 100 runes.
func SanitizeFilename(name string) string {
	name = unsafeFilenameRe.ReplaceAllString(name, "")
	name = strings.Join(strings.Fields(name), "_")
	return Truncate(name, 100)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
