package parsing

import (
	"github.com/jonathan/profile-scraper/internal/platform"
	"github.com/jonathan/profile-scraper/internal/types"
)

// ExtractProfile turns linearized document text into a profile record. It returns nil when
// the text is not a recognized exported profile: the platform name is missing from the
// first lines or no line qualifies as a name. Empty fields are not an error.
//
// label names the source document and is copied into the record.
func ExtractProfile(text, label string, opts ...Option) *types.Profile {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	fold := o.Variant == VariantSimple

	lines := splitLines(text)
	if !hasPlatformGate(lines, platform.PlatformName, o.GateWindow) {
		return nil
	}

	sec := findSections(lines, fold)
	nameIdx := findName(lines, nameSearchStart(sec), o.NameWindow, fold)
	if nameIdx == types.NotFound {
		return nil
	}

	b := types.NewProfileBuilder(types.SourcePDF, o.Now())
	b.SourceDocument(label)
	b.ProfileURL(platform.ProfileURLFromText(text))
	b.Name(lines[nameIdx])
	if h := nameIdx + 1; h < len(lines) && !stopWords(fold, nameSkip...).Contains(lines[h]) {
		b.Headline(lines[h])
		b.Position(splitHeadline(lines[h]))
		b.Location(findLocation(lines, h, o.LocationLookahead, fold))
	}

	if o.Variant == VariantDateAware {
		applyExperience(b, lines, sec)
	}

	edu := findEducation(lines, sec.education, o.EducationWindow, fold)
	b.Schools(edu.schools)
	b.Degrees(edu.degrees)
	for _, e := range edu.entries {
		b.AddEducation(e)
	}

	b.Skills(findSkills(lines, sec.skills, o.SkillsWindow, o.SkillsLimit, fold), o.SkillsLimit)
	b.Summary(findSummary(lines, sec.summary, o.SummaryWindow))
	b.Certifications(findCertifications(lines, sec.certifications, nameIdx, o.CertWindow))

	return b.Build()
}

// applyExperience lets the experience section override the headline-derived position.
// The most recent job wins and the headline is rewritten as "title at company". Without
// dated rows, the first lines under the header fill in a missing or tagline-like company.
func applyExperience(b *types.ProfileBuilder, lines []string, sec sections) {
	jobs := findJobs(lines, sec.experience, sec.education)
	if len(jobs) == 0 {
		if sec.experience == types.NotFound {
			return
		}
		cur := b.Current()
		if c := sec.experience + 1; c < len(lines) && isDescriptiveCompany(cur.Company) && !isPlaceholderCompany(lines[c]) {
			b.Company(lines[c])
		}
		if t := sec.experience + 2; t < len(lines) && cur.Title == "" {
			b.Title(lines[t])
		}
		return
	}

	for _, j := range jobs {
		b.AddExperience(types.ExperienceEntry{Title: j.title, Company: j.company, Duration: j.dateLine})
	}
	top := jobs[0]
	b.Position(top.title, top.company)
	b.Headline(top.title + " at " + top.company)
}
