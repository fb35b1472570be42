package parsing

import (
	"regexp"
	"strings"

	"github.com/jonathan/profile-scraper/internal/types"
)

var (
	schoolRe = regexp.MustCompile(`(?i)\b(University|College|Institute|School|Academy|Polytechnic)\b`)
	degreeRe = regexp.MustCompile(`(?i)\b(Bachelor|Master|MBA|Ph\.?D|Doctor|Doctorate|Diploma|Associate|Certificate|Degree|Postgraduate|Graduate)\b`)
	// Abbreviations are case-sensitive so ordinary words do not match.
	degreeAbbrevRe = regexp.MustCompile(`\b(B\.?Sc?|M\.?Sc?|B\.?A|M\.?A|B\.?Eng|M\.?Eng|B\.?Comm?|BBA|LLB|JD)\b`)
)

type education struct {
	schools []string
	degrees []string
	entries []types.EducationEntry
}

// findEducation classifies the lines after the education header as schools or degrees.
// A degree line is cut at "·", which separates it from the attendance years.
func findEducation(lines []string, eduIdx, window int, fold bool) education {
	var out education
	if eduIdx == types.NotFound {
		return out
	}
	section := types.TakeUpTo(lines, types.Window{
		Start: eduIdx + 1,
		Size:  window,
		Stop:  stopWords(fold, HeaderSkills, HeaderTopSkills, HeaderCertifications, HeaderLanguages, HeaderLicenses, HeaderExperience),
	}, types.Keep(func(string) bool { return true }))

	for _, line := range section {
		switch {
		case schoolRe.MatchString(line):
			if len(out.schools) < types.MaxSchools {
				out.schools = append(out.schools, line)
			}
			if len(out.entries) < types.MaxEducationEntries {
				out.entries = append(out.entries, types.EducationEntry{School: line})
			}
		case degreeRe.MatchString(line) || degreeAbbrevRe.MatchString(line):
			degree, _, _ := strings.Cut(line, "·")
			degree = strings.TrimSpace(degree)
			if len(out.degrees) < types.MaxDegrees {
				out.degrees = append(out.degrees, degree)
			}
			if n := len(out.entries); n > 0 && out.entries[n-1].Degree == "" {
				out.entries[n-1].Degree = degree
			}
		}
	}
	return out
}
