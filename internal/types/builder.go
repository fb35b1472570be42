package types

import (
	"strings"
	"time"
)

// ProfileBuilder accumulates optional profile fields and enforces collection caps.
// The zero value is not usable; use NewProfileBuilder.
type ProfileBuilder struct {
	p Profile
}

// NewProfileBuilder starts a record for the given source.
func NewProfileBuilder(source Source, extractedAt time.Time) *ProfileBuilder {
	return &ProfileBuilder{p: Profile{
		Source:      source,
		ExtractedAt: extractedAt,
		Experience:  []ExperienceEntry{},
		Education:   []EducationEntry{},
	}}
}

// Name sets FullName/FirstName/LastName from a raw name line.
func (b *ProfileBuilder) Name(raw string) *ProfileBuilder {
	b.p.FullName, b.p.FirstName, b.p.LastName = SplitName(raw)
	return b
}

// RawName sets the full name verbatim and derives first/last by whitespace split.
func (b *ProfileBuilder) RawName(name string) *ProfileBuilder {
	name = strings.Join(strings.Fields(name), " ")
	b.p.FullName = name
	parts := strings.Fields(name)
	b.p.FirstName, b.p.LastName = "", ""
	if len(parts) > 0 {
		b.p.FirstName = parts[0]
		b.p.LastName = strings.Join(parts[1:], " ")
	}
	return b
}

// Headline sets the headline, truncated to MaxHeadlineChars.
func (b *ProfileBuilder) Headline(h string) *ProfileBuilder {
	b.p.Headline = Truncate(strings.TrimSpace(h), MaxHeadlineChars)
	return b
}

// Position sets the current title and company.
func (b *ProfileBuilder) Position(title, company string) *ProfileBuilder {
	b.p.Title = strings.TrimSpace(title)
	b.p.Company = strings.TrimSpace(company)
	return b
}

// Title sets only the current title.
func (b *ProfileBuilder) Title(title string) *ProfileBuilder {
	b.p.Title = strings.TrimSpace(title)
	return b
}

// Company sets only the current company.
func (b *ProfileBuilder) Company(company string) *ProfileBuilder {
	b.p.Company = strings.TrimSpace(company)
	return b
}

// Location sets the location.
func (b *ProfileBuilder) Location(loc string) *ProfileBuilder {
	b.p.Location = strings.TrimSpace(loc)
	return b
}

// Schools joins up to MaxSchools entries with " | ".
func (b *ProfileBuilder) Schools(schools []string) *ProfileBuilder {
	b.p.School = JoinCapped(schools, MaxSchools, " | ")
	return b
}

// Degrees joins up to MaxDegrees entries with " | ".
func (b *ProfileBuilder) Degrees(degrees []string) *ProfileBuilder {
	b.p.Degree = JoinCapped(degrees, MaxDegrees, " | ")
	return b
}

// Skills joins up to limit entries with ", ". A limit <= 0 keeps every entry.
func (b *ProfileBuilder) Skills(skills []string, limit int) *ProfileBuilder {
	b.p.Skills = JoinCapped(skills, limit, ", ")
	return b
}

// Summary sets the summary, truncated to MaxSummaryChars.
func (b *ProfileBuilder) Summary(s string) *ProfileBuilder {
	b.p.Summary = Truncate(s, MaxSummaryChars)
	return b
}

// About sets the about text, truncated to MaxAboutChars.
func (b *ProfileBuilder) About(s string) *ProfileBuilder {
	b.p.About = Truncate(strings.TrimSpace(s), MaxAboutChars)
	return b
}

// Certifications joins up to MaxCertifications entries with " | ".
func (b *ProfileBuilder) Certifications(certs []string) *ProfileBuilder {
	b.p.Certifications = JoinCapped(certs, MaxCertifications, " | ")
	return b
}

// ProfileURL sets the already-normalized absolute profile URL.
func (b *ProfileBuilder) ProfileURL(u string) *ProfileBuilder {
	b.p.ProfileURL = u
	return b
}

// SourceDocument records the input filename.
func (b *ProfileBuilder) SourceDocument(name string) *ProfileBuilder {
	b.p.SourceDocument = name
	return b
}

// AddExperience appends a job row unless the cap is reached. It reports whether the row was kept.
func (b *ProfileBuilder) AddExperience(e ExperienceEntry) bool {
	if len(b.p.Experience) >= MaxExperienceEntries {
		return false
	}
	b.p.Experience = append(b.p.Experience, e)
	return true
}

// AddEducation appends a school row unless the cap is reached.
func (b *ProfileBuilder) AddEducation(e EducationEntry) bool {
	if len(b.p.Education) >= MaxEducationEntries {
		return false
	}
	b.p.Education = append(b.p.Education, e)
	return true
}

// Current returns a read-only view of the partially built record.
func (b *ProfileBuilder) Current() Profile {
	return b.p
}

// Build returns the finished record. The builder must not be reused afterwards.
func (b *ProfileBuilder) Build() *Profile {
	p := b.p
	return &p
}

// JoinCapped joins at most limit items with sep. A limit <= 0 means no cap.
func JoinCapped(items []string, limit int, sep string) string {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return strings.Join(items, sep)
}
