package parsing

import (
	"strings"

	"github.com/jonathan/profile-scraper/internal/types"
)

// Section header lines as they appear in exported documents.
const (
	HeaderContact        = "Contact"
	HeaderSummary        = "Summary"
	HeaderExperience     = "Experience"
	HeaderEducation      = "Education"
	HeaderSkills         = "Skills"
	HeaderTopSkills      = "Top Skills"
	HeaderLanguages      = "Languages"
	HeaderCertifications = "Certifications"
	HeaderHonors         = "Honors-Awards"
	HeaderPublications   = "Publications"
	HeaderLicenses       = "Licenses"
)

// sections holds the index of each recognized header, or types.NotFound.
type sections struct {
	certifications int
	languages      int
	experience     int
	education      int
	skills         int
	summary        int
}

// splitLines trims every line and drops empty ones.
func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// findSections records the first occurrence of each header. Headers match the whole line;
// fold makes the match case-insensitive.
func findSections(lines []string, fold bool) sections {
	s := sections{
		certifications: types.NotFound,
		languages:      types.NotFound,
		experience:     types.NotFound,
		education:      types.NotFound,
		skills:         types.NotFound,
		summary:        types.NotFound,
	}
	is := func(line, header string) bool {
		if fold {
			return strings.EqualFold(line, header)
		}
		return line == header
	}
	set := func(idx *int, i int) {
		if *idx == types.NotFound {
			*idx = i
		}
	}

	for i, line := range lines {
		switch {
		case is(line, HeaderCertifications):
			set(&s.certifications, i)
		case is(line, HeaderLanguages):
			set(&s.languages, i)
		case is(line, HeaderExperience):
			set(&s.experience, i)
		case is(line, HeaderEducation):
			set(&s.education, i)
		case is(line, HeaderSkills), is(line, HeaderTopSkills):
			set(&s.skills, i)
		case is(line, HeaderSummary):
			set(&s.summary, i)
		}
	}
	return s
}

// hasPlatformGate reports whether the platform name appears in the first n lines.
func hasPlatformGate(lines []string, platform string, n int) bool {
	for i := 0; i < len(lines) && i < n; i++ {
		if strings.Contains(strings.ToLower(lines[i]), platform) {
			return true
		}
	}
	return false
}

func stopWords(fold bool, words ...string) types.StopWords {
	if fold {
		return types.NewFoldedStopWords(words...)
	}
	return types.NewStopWords(words...)
}
