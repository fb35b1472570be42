// Package parsing extracts profile records from linearized exported-profile text.
//
// The extractor is a fixed sequence of heuristic stages. Each stage reads the partial
// record built by the previous stages and may override it: experience-section data,
// for example, is authoritative over the headline.
package parsing

import "time"

// Variant selects one of the two historical rule sets.
type Variant int

const (
	// VariantDateAware matches headers exactly and builds the dated experience list.
	VariantDateAware Variant = iota
	// VariantSimple matches headers case-insensitively and derives title/company from the headline only.
	VariantSimple
)

// Options tunes the bounded windows used by each stage.
type Options struct {
	Variant           Variant
	GateWindow        int // lines searched for the platform name
	NameWindow        int // lines scanned for a name candidate
	LocationLookahead int // lines after the headline scanned for a location
	EducationWindow   int
	SkillsWindow      int
	SkillsLimit       int // <= 0 keeps every skill in the window
	SummaryWindow     int
	CertWindow        int
	Now               func() time.Time
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the date-aware rule set.
func DefaultOptions() Options {
	return Options{
		Variant:           VariantDateAware,
		GateWindow:        10,
		NameWindow:        15,
		LocationLookahead: 3,
		EducationWindow:   20,
		SkillsWindow:      15,
		SkillsLimit:       10,
		SummaryWindow:     10,
		CertWindow:        10,
		Now:               time.Now,
	}
}

// WithVariant selects the rule set. VariantSimple also narrows the skills window to 8
// lines and lifts the skills cap.
func WithVariant(v Variant) Option {
	return func(o *Options) {
		o.Variant = v
		if v == VariantSimple {
			o.SkillsWindow = 8
			o.SkillsLimit = 0
		}
	}
}

// WithSkills overrides the skills window and cap.
func WithSkills(window, limit int) Option {
	return func(o *Options) {
		o.SkillsWindow = window
		o.SkillsLimit = limit
	}
}

// WithClock fixes the ExtractedAt timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}
